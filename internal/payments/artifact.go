package payments

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// Демо-реквизиты магазина
var (
	wallets = map[string]string{
		"BTC":  "3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy",
		"ETH":  "0x71C7656EC7ab88b098defB751B7401B5f6d8976F",
		"USDT": "TKwVfboPMpCnidJQbh4RG8uptgYVjFeYKf",
	}
	p2pAccounts = map[string]string{
		"QIWI":    "+79123456789",
		"YuMoney": "4100123456789012",
	}
	merchants = map[string]string{
		"FreeKassa": "fk_m12345",
		"Enot":      "enot_m67890",
	}
)

func buildArtifact(methodType, subtype string, amount decimal.Decimal, txID, email, secret string) Artifact {
	sum := amount.StringFixed(2)
	switch methodType {
	case TypeCrypto:
		addr := wallets[subtype]
		return Artifact{
			Address: addr,
			URI:     fmt.Sprintf("%s:%s?amount=%s", strings.ToLower(subtype), addr, sum),
		}
	case TypeP2P:
		account := p2pAccounts[subtype]
		comment := url.QueryEscape("Order " + txID)
		var link string
		if subtype == "QIWI" {
			whole := amount.Truncate(0)
			frac := amount.Sub(whole).Shift(2).Round(0)
			link = fmt.Sprintf("https://qiwi.com/payment/form?extra[account]=%s&extra[comment]=%s&amountInteger=%s&amountFraction=%s",
				url.QueryEscape(account), comment, whole.String(), frac.String())
		} else {
			link = fmt.Sprintf("https://yoomoney.ru/transfer/quickpay?receiver=%s&sum=%s&comment=%s",
				url.QueryEscape(account), sum, comment)
		}
		return Artifact{Account: account, URL: link}
	case TypeCard:
		merchant := merchants[subtype]
		sig := Sign(secret, merchant, amount, txID)
		base := "https://pay.freekassa.ru/"
		if subtype == "Enot" {
			base = "https://enot.io/pay"
		}
		q := url.Values{}
		q.Set("m", merchant)
		q.Set("oa", sum)
		q.Set("o", txID)
		q.Set("s", sig)
		if email != "" {
			q.Set("em", email)
		}
		return Artifact{Merchant: merchant, Signature: sig, URL: base + "?" + q.Encode()}
	}
	return Artifact{}
}
