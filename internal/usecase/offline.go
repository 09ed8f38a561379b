package usecase

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

type slide struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type overview struct {
	Narration string  `json:"narration"`
	Slides    []slide `json:"slides"`
}

type audioTurn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

type flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

type quizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

var keywordPattern = regexp.MustCompile(`[A-Za-z][A-Za-z\-]{2,}`)

var keywordStopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`the and for with that this from into your their they them then than have has had
		are was were be been being will would can could should may might not but you our
		also more most some such use using used over under between within without about onto
		what when where why how which who whom because while during`) {
		keywordStopwords[w] = struct{}{}
	}
}

func buildSlides(text string) []slide {
	bullets := extractBullets(text, 12)
	if len(bullets) == 0 {
		return []slide{{Title: "Summary", Content: Truncate(text, 600)}}
	}

	slides := []slide{{Title: "Overview", Content: bulletList(bullets[:min(4, len(bullets))])}}
	if len(bullets) <= 4 {
		return slides
	}
	for i, group := range chunkStrings(bullets[4:], 3) {
		if i == 5 {
			break
		}
		slides = append(slides, slide{Title: fmt.Sprintf("Key Point %d", i+1), Content: bulletList(group)})
	}
	return slides
}

func buildVideoOverview(text string) overview {
	slides := buildSlides(text)

	var b strings.Builder
	b.WriteString("In this overview, we'll summarize the main ideas from your sources.\n")
	for _, s := range slides[:min(6, len(slides))] {
		fmt.Fprintf(&b, "\n%s. %s\n", s.Title, stripBullets(s.Content))
	}
	b.WriteString("\nThat's the high-level picture. Ask a question in chat for details with citations.")

	return overview{Narration: strings.TrimSpace(b.String()), Slides: slides}
}

func buildAudioTurns(text string) []audioTurn {
	bullets := extractBullets(text, 10)
	if len(bullets) == 0 {
		bullets = append(bullets, Truncate(text, 300))
	}

	turns := []audioTurn{{Speaker: "Host", Text: "Welcome to this deep dive. Here is what stands out in your sources."}}
	for i, b := range bullets {
		speaker := "Guest"
		if i%2 == 1 {
			speaker = "Host"
		}
		turns = append(turns, audioTurn{Speaker: speaker, Text: b})
	}
	return append(turns, audioTurn{Speaker: "Guest", Text: "For more detail, ask a question in chat and we'll point you to the sources."})
}

func buildMermaid(text string) string {
	keywords := extractKeywords(text, 15)
	if len(keywords) == 0 {
		return "graph TD\n  A[Sources] --> B[No extractable keywords]"
	}

	var b strings.Builder
	b.WriteString("graph TD\n")
	fmt.Fprintf(&b, "  A[\"%s\"]\n", escapeMermaid(keywords[0]))

	nodes := map[string]string{keywords[0]: "A"}
	next := 1
	for _, k := range keywords[1:] {
		if next >= 12 {
			break
		}
		id := fmt.Sprintf("N%d", next)
		fmt.Fprintf(&b, "  %s[\"%s\"]\n", id, escapeMermaid(k))
		nodes[k] = id
		next++
	}

	edges := 0
	sentences := splitSentences(text)
	for _, s := range sentences[:min(20, len(sentences))] {
		var found []string
		for _, k := range keywords {
			if containsFold(s, k) {
				found = append(found, k)
			}
		}
		if len(found) < 2 {
			continue
		}
		from, ok1 := nodes[found[0]]
		to, ok2 := nodes[found[1]]
		if ok1 && ok2 && from != to {
			fmt.Fprintf(&b, "  %s --> %s\n", from, to)
			edges++
		}
	}
	if edges == 0 {
		for i := 1; i < next; i++ {
			fmt.Fprintf(&b, "  A --> N%d\n", i)
		}
	}
	return strings.TrimSpace(b.String())
}

func buildFlashcards(text string) []flashcard {
	cards := []flashcard{}
	for _, term := range extractKeywords(text, 12) {
		def := findSentence(text, term)
		if def == "" {
			def = fmt.Sprintf("From the sources, %s is discussed as an important concept.", term)
		}
		cards = append(cards, flashcard{Front: term, Back: Truncate(def, 220)})
	}
	return cards
}

func buildQuiz(text string) []quizQuestion {
	questions := []quizQuestion{}
	keywords := extractKeywords(text, 8)
	for _, term := range keywords[:min(5, len(keywords))] {
		sentence := findSentence(text, term)
		if sentence == "" {
			continue
		}
		questions = append(questions, quizQuestion{
			Question: fmt.Sprintf("Which concept is described here?\n\n%q", Truncate(sentence, 180)),
			Options:  []string{term, "Not mentioned", "Unrelated detail", "Background context"},
			Answer:   term,
		})
	}
	return questions
}

func buildTable(text string) string {
	var b strings.Builder
	b.WriteString("| Concept | Evidence (excerpt) |\n|---|---|\n")
	for _, k := range extractKeywords(text, 6) {
		evidence := Truncate(strings.ReplaceAll(findSentence(text, k), "|", `\|`), 120)
		fmt.Fprintf(&b, "| %s | %s |\n", strings.ReplaceAll(k, "|", `\|`), evidence)
	}
	return strings.TrimSpace(b.String())
}

func buildBriefing(text string) string {
	var b strings.Builder
	b.WriteString("# Briefing\n\n## Executive Summary\n")
	b.WriteString(Truncate(text, 500))
	b.WriteString("\n\n## Key Points\n")
	bullets := extractBullets(text, 10)
	for _, bullet := range bullets[:min(8, len(bullets))] {
		b.WriteString("- " + bullet + "\n")
	}
	b.WriteString("\n## Next Questions\n")
	b.WriteString("- What are the most important claims, and which sources support them?\n")
	b.WriteString("- What are the risks or unknowns called out by the sources?\n")
	return strings.TrimSpace(b.String())
}

// splitSentences splits after '.', '!' or '?' followed by whitespace.
func splitSentences(text string) []string {
	var out []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		if r := runes[i]; r != '.' && r != '!' && r != '?' {
			continue
		}
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j == i+1 {
			continue
		}
		if s := string(runes[start : i+1]); strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
		start = j
		i = j - 1
	}
	if start < len(runes) {
		if s := string(runes[start:]); strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func extractBullets(text string, limit int) []string {
	var bullets []string
	seen := make(map[string]struct{})
	for _, s := range splitSentences(text) {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) < 40 {
			continue
		}
		if utf8.RuneCountInString(s) > 180 {
			s = strings.TrimSpace(string([]rune(s)[:180])) + "…"
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		bullets = append(bullets, s)
		if len(bullets) == limit {
			break
		}
	}
	return bullets
}

// extractKeywords returns the most frequent non-stopword words, title-cased.
func extractKeywords(text string, limit int) []string {
	type counted struct {
		word  string
		count int
	}
	index := make(map[string]int)
	var words []counted
	for _, w := range keywordPattern.FindAllString(text, -1) {
		key := strings.ToLower(w)
		if _, stop := keywordStopwords[key]; stop {
			continue
		}
		if i, ok := index[key]; ok {
			words[i].count++
			continue
		}
		index[key] = len(words)
		words = append(words, counted{word: w, count: 1})
	}

	slices.SortStableFunc(words, func(a, b counted) int {
		if a.count != b.count {
			return b.count - a.count
		}
		return strings.Compare(strings.ToUpper(a.word), strings.ToUpper(b.word))
	})

	var out []string
	for _, w := range words {
		title := titleCase(w.word)
		if !slices.Contains(out, title) {
			out = append(out, title)
		}
		if len(out) == limit {
			break
		}
	}
	return out
}

func findSentence(text, term string) string {
	if strings.TrimSpace(term) == "" {
		return ""
	}
	for _, s := range splitSentences(text) {
		if containsFold(s, term) {
			return s
		}
	}
	return ""
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func escapeMermaid(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Item"
	}
	return strings.NewReplacer("[", "(", "]", ")", `"`, "'").Replace(s)
}

func bulletList(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "• " + item
	}
	return strings.Join(lines, "\n")
}

func stripBullets(content string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(content, "•", ""), "\n", " "))
}

func chunkStrings(items []string, size int) [][]string {
	var out [][]string
	for i := 0; i < len(items); i += size {
		out = append(out, items[i:min(i+size, len(items))])
	}
	return out
}
