// Package entity extracts named entities from signal text using curated
// alias tables. The tables carry Arabic aliases alongside the English
// ones because the target channels cover Arabic-language news.
package entity

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Set groups extracted entities by kind.
type Set struct {
	People        []string
	Countries     []string
	Organizations []string
	Topics        []string
}

// Empty reports whether no entities were found.
func (s Set) Empty() bool {
	return len(s.People) == 0 && len(s.Countries) == 0 &&
		len(s.Organizations) == 0 && len(s.Topics) == 0
}

// All returns every entity name across kinds.
func (s Set) All() []string {
	out := make([]string, 0, len(s.People)+len(s.Countries)+len(s.Organizations)+len(s.Topics))
	out = append(out, s.People...)
	out = append(out, s.Countries...)
	out = append(out, s.Organizations...)
	out = append(out, s.Topics...)
	return out
}

// Alias tables map a canonical entity name to the strings that identify
// it in text. Short ASCII aliases are matched as whole tokens, longer
// ones as substrings.

var people = map[string][]string{
	"Trump":      {"trump", "ترامب", "ترمب"},
	"Biden":      {"biden", "بايدن"},
	"Musk":       {"musk", "ماسك", "إيلون", "ايلون"},
	"Putin":      {"putin", "بوتين", "فلاديمير"},
	"Xi Jinping": {"xi jinping", "شي جين بينغ", "الرئيس الصيني"},
	"Netanyahu":  {"netanyahu", "نتنياهو", "نتانياهو"},
	"Zelensky":   {"zelensky", "زيلينسكي"},
	"Maduro":     {"maduro", "مادورو"},
	"Erdogan":    {"erdogan", "أردوغان"},
	"MBS":        {"mbs", "محمد بن سلمان"},
	"Khamenei":   {"khamenei", "خامنئي"},
}

var countries = map[string][]string{
	"China":        {"china", "chinese", "beijing", "الصين", "صيني", "بكين"},
	"Russia":       {"russia", "russian", "moscow", "روسيا", "روسي", "موسكو"},
	"Iran":         {"iran", "iranian", "tehran", "إيران", "ايران", "طهران"},
	"USA":          {"america", "american", "usa", "us", "washington", "أمريك", "امريك", "الولايات المتحدة", "واشنطن"},
	"Venezuela":    {"venezuela", "فنزويلا", "فينزويلا"},
	"Ukraine":      {"ukraine", "ukrainian", "kyiv", "أوكرانيا", "اوكرانيا", "كييف"},
	"Saudi Arabia": {"saudi", "riyadh", "السعودية", "سعودي", "الرياض"},
	"Israel":       {"israel", "israeli", "إسرائيل", "اسرائيل"},
	"Egypt":        {"egypt", "egyptian", "cairo", "مصر", "مصري", "القاهرة"},
	"Turkey":       {"turkey", "turkish", "ankara", "تركيا", "تركي", "أنقرة"},
	"India":        {"india", "indian", "الهند", "هندي"},
	"Japan":        {"japan", "japanese", "اليابان", "ياباني"},
	"Germany":      {"germany", "german", "ألمانيا", "المانيا"},
	"France":       {"france", "french", "فرنسا", "فرنسي"},
	"UK":           {"uk", "britain", "british", "london", "بريطانيا", "لندن"},
	"Tunisia":      {"tunisia", "tunisian", "تونس"},
	"Algeria":      {"algeria", "algerian", "الجزائر"},
	"Morocco":      {"morocco", "moroccan", "المغرب"},
	"Libya":        {"libya", "libyan", "ليبيا"},
	"Sudan":        {"sudan", "sudanese", "السودان"},
	"Iraq":         {"iraq", "iraqi", "العراق"},
	"Syria":        {"syria", "syrian", "سوريا"},
	"Lebanon":      {"lebanon", "lebanese", "لبنان"},
	"Jordan":       {"jordan", "jordanian", "الأردن"},
	"Palestine":    {"palestine", "palestinian", "فلسطين"},
	"Yemen":        {"yemen", "yemeni", "اليمن"},
	"UAE":          {"uae", "emirates", "الإمارات"},
	"Qatar":        {"qatar", "qatari", "قطر"},
	"Kuwait":       {"kuwait", "kuwaiti", "الكويت"},
	"Bahrain":      {"bahrain", "bahraini", "البحرين"},
	"Oman":         {"oman", "omani", "عمان"},
}

var organizations = map[string][]string{
	"Apple":      {"apple", "آبل", "أبل"},
	"Google":     {"google", "جوجل", "غوغل"},
	"Microsoft":  {"microsoft", "مايكروسوفت"},
	"Amazon":     {"amazon", "أمازون"},
	"Tesla":      {"tesla", "تسلا"},
	"Meta":       {"meta", "facebook", "فيسبوك", "ميتا"},
	"OpenAI":     {"openai"},
	"Nvidia":     {"nvidia", "نفيديا"},
	"NATO":       {"nato", "الناتو"},
	"OPEC":       {"opec", "أوبك"},
	"BRICS":      {"brics", "بريكس"},
	"IMF":        {"imf", "صندوق النقد"},
	"World Bank": {"world bank", "البنك الدولي"},
	"EU":         {"eu", "الاتحاد الأوروبي"},
	"UN":         {"un", "الأمم المتحدة"},
	"Hamas":      {"hamas", "حماس"},
	"Hezbollah":  {"hezbollah", "حزب الله"},
	"ISIS":       {"isis", "داعش", "القاعدة"},
	"GCC":        {"مجلس التعاون"},
}

var topics = map[string][]string{
	"tariffs":         {"tariff", "جمارك", "جمركي", "رسوم جمركية"},
	"trade_war":       {"trade war", "حرب تجارية"},
	"trade":           {"trade", "import", "export", "تجارة", "صادرات", "واردات"},
	"banking":         {"bank", "بنك", "بنوك", "مصرف"},
	"interest_rates":  {"interest rate", "سعر الفائدة", "فائدة"},
	"federal_reserve": {"fed", "federal reserve", "الفيدرالي", "الاحتياطي"},
	"inflation":       {"inflation", "تضخم"},
	"recession":       {"recession", "ركود"},
	"economy":         {"economy", "economic", "اقتصاد"},
	"unemployment":    {"unemployment", "بطالة"},
	"debt":            {"debt", "ديون"},
	"currency":        {"currency", "عملة"},
	"remittances":     {"remittances", "تحويلات"},
	"oil":             {"oil", "petroleum", "نفط", "بترول"},
	"gas":             {"gas", "natural gas", "غاز"},
	"energy":          {"energy", "طاقة"},
	"sanctions":       {"sanction", "عقوبات"},
	"blockade":        {"blockade", "حصار"},
	"war":             {"war", "حرب"},
	"conflict":        {"conflict", "صراع"},
	"peace":           {"peace", "ceasefire", "سلام"},
	"nuclear":         {"nuclear", "نووي"},
	"missiles":        {"missiles", "صواريخ"},
	"weapons":         {"weapons", "أسلحة"},
	"election":        {"election", "انتخابات", "تصويت"},
	"military":        {"military", "عسكري", "الجيش"},
	"government":      {"government", "حكومة"},
	"protests":        {"protest", "احتجاج", "مظاهرات", "تظاهرات"},
	"refugees":        {"refugees", "لاجئين"},
	"immigration":     {"immigration", "هجرة"},
	"ai":              {"ai", "artificial intelligence", "الذكاء الاصطناعي", "ذكاء اصطناعي"},
	"chips":           {"chip", "chips", "semiconductor", "رقائق", "أشباه الموصلات"},
	"bitcoin":         {"bitcoin", "بيتكوين"},
	"crypto":          {"crypto", "cryptocurrency", "كريبتو", "عملات رقمية"},
	"gold":            {"gold", "ذهب"},
	"dollar":          {"dollar", "دولار"},
	"euro":            {"euro", "يورو"},
}

// Extract finds all known entities mentioned in text.
func Extract(text string) Set {
	lower := strings.ToLower(text)
	tokens := tokenSet(lower)

	return Set{
		People:        matchTable(lower, tokens, people),
		Countries:     matchTable(lower, tokens, countries),
		Organizations: matchTable(lower, tokens, organizations),
		Topics:        matchTable(lower, tokens, topics),
	}
}

func matchTable(lower string, tokens map[string]bool, table map[string][]string) []string {
	var found []string
	for name, aliases := range table {
		for _, alias := range aliases {
			if matchAlias(lower, tokens, alias) {
				found = append(found, name)
				break
			}
		}
	}
	sort.Strings(found)
	return found
}

// matchAlias matches short ASCII aliases as whole tokens so that "us"
// does not fire inside "during" or "oman" inside "romania". Longer
// aliases and Arabic aliases match as substrings since token splitting
// is unreliable across scripts.
func matchAlias(lower string, tokens map[string]bool, alias string) bool {
	if len(alias) <= 4 && isASCII(alias) && !strings.Contains(alias, " ") {
		return tokens[alias]
	}
	return strings.Contains(lower, alias)
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(text) {
		w = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if w != "" {
			set[w] = true
		}
	}
	return set
}

// Normalize lowercases text, strips punctuation and collapses
// whitespace. Fingerprints and fuzzy comparisons operate on this form.
func Normalize(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Similarity is a Jaccard ratio over the word sets of two normalized
// strings. Words shorter than three runes carry no signal and are
// dropped, so repeated or filler tokens cannot inflate the score.
func Similarity(a, b string) float64 {
	wa := similarityWords(a)
	wb := similarityWords(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	shared := 0
	for w := range wa {
		if wb[w] {
			shared++
		}
	}
	union := len(wa) + len(wb) - shared
	return float64(shared) / float64(union)
}

func similarityWords(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(Normalize(text)) {
		if utf8.RuneCountInString(w) > 2 {
			set[w] = true
		}
	}
	return set
}

// DetectLanguage returns "ar" when more than a quarter of the letters
// are Arabic script, otherwise "en".
func DetectLanguage(text string) string {
	var letters, arabic int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Arabic, r) {
			arabic++
		}
	}
	if letters > 0 && float64(arabic)/float64(letters) > 0.25 {
		return "ar"
	}
	return "en"
}

// Categorize assigns a coarse story category from the extracted
// entities. Used for learning weights and the arbitration prompt.
func Categorize(s Set) string {
	has := func(list []string, names ...string) bool {
		for _, n := range names {
			for _, v := range list {
				if v == n {
					return true
				}
			}
		}
		return false
	}

	usChina := has(s.Countries, "USA") && has(s.Countries, "China")
	switch {
	case usChina && has(s.Topics, "tariffs", "trade", "trade_war"):
		return "us_china_trade"
	case usChina && has(s.Topics, "ai", "chips"):
		return "us_china_tech"
	case has(s.Countries, "Russia") && has(s.Countries, "Ukraine"):
		return "russia_ukraine_war"
	case has(s.Countries, "Iran") && has(s.Topics, "nuclear", "sanctions"):
		return "iran_nuclear"
	case has(s.Topics, "oil", "gas", "energy") || has(s.Organizations, "OPEC"):
		return "energy"
	case has(s.Topics, "ai", "chips") || has(s.Organizations, "Nvidia", "OpenAI"):
		return "technology"
	case has(s.Topics, "bitcoin", "crypto"):
		return "crypto"
	case has(s.Topics, "gold", "dollar", "euro"):
		return "commodities"
	default:
		return "general"
	}
}
