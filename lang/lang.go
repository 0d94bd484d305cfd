package lang

import (
	"fmt"
	"sort"
)

const (
	En = "en"
	Hi = "hi"
)

var messages = map[string]map[string]string{
	En: {
		"welcome":          "Welcome to the campus canteen! Browse the menu, build your cart and save favourites.",
		"choose_lang":      "Choose your language",
		"language_changed": "Language changed.",
		"menu_header":      "🍽 Menu",
		"menu_empty":       "No items found. Try adjusting your search or filters.",
		"page":             "Page %d/%d",
		"cart_label":       "Cart",
		"cart_empty":       "Your cart is empty.",
		"favorites_label":  "Favourites",
		"favorites_empty":  "You have no favourites yet.",
		"total":            "Total",
		"items_in_cart":    "%d in cart",
		"filters":          "Filters",
		"filter_category":  "Category",
		"filter_cuisine":   "Cuisine",
		"filter_dietary":   "Diet",
		"filter_price":     "Price",
		"filter_spice":     "Max spice",
		"filter_search":    "Search",
		"diet_all":         "All",
		"diet_veg":         "Veg",
		"diet_nonveg":      "Non-veg",
		"all":              "All",
		"view_menu":        "📋 Menu",
		"view_cart":        "🛒 Cart",
		"view_favorites":   "❤️ Favourites",
		"back":             "⬅️ Back",
		"clear_cart":       "Clear cart",
		"reset_filters":    "Reset filters",
		"filters_reset":    "Filters reset.",
		"usage_search":     "Usage: /search <text>",
		"usage_price":      "Usage: /maxprice <amount> or /minprice <amount>",
		"usage_spice":      "Usage: /spice <0-5> or /spice all",
		"added":            "Added %s",
		"removed":          "Removed %s",
		"fav_on":           "Added to favourites",
		"fav_off":          "Removed from favourites",
		"prep_minutes":     "%dm",
	},
	Hi: {
		"welcome":          "कैंपस कैंटीन में आपका स्वागत है! मेन्यू देखें, कार्ट बनाएं और पसंदीदा सहेजें।",
		"choose_lang":      "अपनी भाषा चुनें",
		"language_changed": "भाषा बदल दी गई।",
		"menu_header":      "🍽 मेन्यू",
		"menu_empty":       "कोई आइटम नहीं मिला। खोज या फ़िल्टर बदलकर देखें।",
		"page":             "पेज %d/%d",
		"cart_label":       "कार्ट",
		"cart_empty":       "आपका कार्ट खाली है।",
		"favorites_label":  "पसंदीदा",
		"favorites_empty":  "अभी कोई पसंदीदा नहीं है।",
		"total":            "कुल",
		"items_in_cart":    "कार्ट में %d",
		"filters":          "फ़िल्टर",
		"filter_category":  "श्रेणी",
		"filter_cuisine":   "व्यंजन",
		"filter_dietary":   "आहार",
		"filter_price":     "कीमत",
		"filter_spice":     "अधिकतम तीखापन",
		"filter_search":    "खोज",
		"diet_all":         "सभी",
		"diet_veg":         "शाकाहारी",
		"diet_nonveg":      "मांसाहारी",
		"all":              "सभी",
		"view_menu":        "📋 मेन्यू",
		"view_cart":        "🛒 कार्ट",
		"view_favorites":   "❤️ पसंदीदा",
		"back":             "⬅️ वापस",
		"clear_cart":       "कार्ट खाली करें",
		"reset_filters":    "फ़िल्टर रीसेट करें",
		"filters_reset":    "फ़िल्टर रीसेट हो गए।",
		"usage_search":     "उपयोग: /search <शब्द>",
		"usage_price":      "उपयोग: /maxprice <राशि> या /minprice <राशि>",
		"usage_spice":      "उपयोग: /spice <0-5> या /spice all",
		"added":            "%s जोड़ा गया",
		"removed":          "%s हटाया गया",
		"fav_on":           "पसंदीदा में जोड़ा गया",
		"fav_off":          "पसंदीदा से हटाया गया",
		"prep_minutes":     "%d मि.",
	},
}

// T returns the message for key in language l, falling back to English and then to the key itself.
func T(l, key string, args ...interface{}) string {
	msg, ok := messages[l][key]
	if !ok {
		msg, ok = messages[En][key]
	}
	if !ok {
		msg = key
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

func Supported(l string) bool {
	_, ok := messages[l]
	return ok
}

// Keys lists every message key of the English catalog, sorted.
func Keys() []string {
	keys := make([]string, 0, len(messages[En]))
	for k := range messages[En] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
