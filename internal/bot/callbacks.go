package bot

import (
	"strconv"
	"strings"
)

// action — разобранные callback data inline-кнопки
type action struct {
	name    string
	id      uint
	page    int
	subtype string
	lang    string
}

const (
	actMainMenu     = "main_menu"
	actCatalog      = "catalog"
	actAccount      = "account"
	actSupport      = "support"
	actLanguageMenu = "language_menu"
	actSetLang      = "set_lang"
	actCategory     = "category"
	actProduct      = "product"
	actBuy          = "buy"
	actPay          = "pay"
	actConfirm      = "confirm_payment"
	actCancel       = "cancel"
)

// parseCallback понимает: main_menu, catalog, account, support, language_menu,
// set_lang_<en|ru>, category_<id>[_page_<n>], product_<id>, buy_<id>,
// pay_<methodID>[_<subtype>], confirm_payment, cancel.
func parseCallback(data string) (action, bool) {
	switch data {
	case actMainMenu, actCatalog, actAccount, actSupport, actLanguageMenu, actConfirm, actCancel:
		return action{name: data}, true
	}

	if lang, ok := strings.CutPrefix(data, "set_lang_"); ok {
		if lang == "" {
			return action{}, false
		}
		return action{name: actSetLang, lang: lang}, true
	}

	if rest, ok := strings.CutPrefix(data, "category_"); ok {
		idPart, pagePart, paged := strings.Cut(rest, "_page_")
		id, ok := parseID(idPart)
		if !ok {
			return action{}, false
		}
		a := action{name: actCategory, id: id, page: 1}
		if paged {
			page, err := strconv.Atoi(pagePart)
			if err != nil || page < 1 {
				return action{}, false
			}
			a.page = page
		}
		return a, true
	}

	for _, name := range []string{actProduct, actBuy} {
		if rest, ok := strings.CutPrefix(data, name+"_"); ok {
			id, ok := parseID(rest)
			if !ok {
				return action{}, false
			}
			return action{name: name, id: id}, true
		}
	}

	if rest, ok := strings.CutPrefix(data, "pay_"); ok {
		idPart, subtype, _ := strings.Cut(rest, "_")
		id, ok := parseID(idPart)
		if !ok {
			return action{}, false
		}
		return action{name: actPay, id: id, subtype: subtype}, true
	}
	return action{}, false
}

func parseID(s string) (uint, bool) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func categoryData(id uint, page int) string {
	if page <= 1 {
		return "category_" + strconv.FormatUint(uint64(id), 10)
	}
	return "category_" + strconv.FormatUint(uint64(id), 10) + "_page_" + strconv.Itoa(page)
}

func idData(prefix string, id uint) string {
	return prefix + "_" + strconv.FormatUint(uint64(id), 10)
}

func payData(methodID uint, subtype string) string {
	d := idData(actPay, methodID)
	if subtype != "" {
		d += "_" + subtype
	}
	return d
}
