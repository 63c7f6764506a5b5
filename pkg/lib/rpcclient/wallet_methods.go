package rpcclient

import (
	"net/url"
	"strings"
)

// walletMethods are routed to the wallet endpoint when a wallet is selected.
var walletMethods = []string{
	"getwalletinfo",
	"getbalance",
	"getnewaddress",
	"listaddressgroupings",
	"getaddressinfo",
	"listreceivedbyaddress",
	"listtransactions",
	"gettransaction",
	"sendtoaddress",
	"signmessage",
	"verifymessage",
	"encryptwallet",
	"walletpassphrase",
	"walletlock",
	"walletpassphrasechange",
	"backupwallet",
	"listunspent",
	"createrawtransaction",
	"fundrawtransaction",
	"signrawtransactionwithwallet",
	"settxfee",
	"getaddressesbylabel",
	"listlabels",
	"setlabel",
	"importaddress",
	"importprivkey",
	"dumpprivkey",
	"dumpwallet",
	"importwallet",
	"keypoolrefill",
	"getrawchangeaddress",
	"abandontransaction",
	"abortrescan",
	"addmultisigaddress",
	"bumpfee",
	"createwallet",
	"loadwallet",
	"unloadwallet",
	"listwallets",
	"listwalletdir",
	"listreceivedbylabel",
	"lockunspent",
	"listlockunspent",
	"rescanblockchain",
	"sethdseed",
	"walletcreatefundedpsbt",
	"walletprocesspsbt",
}

var walletMethodSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(walletMethods))
	for _, name := range walletMethods {
		m[name] = struct{}{}
	}
	return m
}()

// IsWalletMethod reports whether method is wallet-scoped. Matching is exact.
func IsWalletMethod(method string) bool {
	_, ok := walletMethodSet[method]
	return ok
}

// WalletMethods returns the wallet-scoped methods.
func WalletMethods() []string {
	return append([]string(nil), walletMethods...)
}

// RequestPath returns the HTTP path a call of method is posted to.
func RequestPath(wallet, method string) string {
	if wallet == "" || !IsWalletMethod(method) {
		return "/"
	}
	return "/wallet/" + encodeURIComponent(wallet)
}

// encodeURIComponent escapes everything except A-Z a-z 0-9 - _ . ! ~ * ' ( )
var uriComponentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func encodeURIComponent(s string) string {
	return uriComponentUnescaper.Replace(url.QueryEscape(s))
}
