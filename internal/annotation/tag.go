package annotation

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Tag is an error category of the annotation scheme. The set is closed;
// labels outside it parse to TagUnknown.
type Tag uint8

const (
	TagUnknown Tag = iota

	// Orthography
	TagPunctuation    // NO
	TagSpelling       // YA
	TagSpacing        // BA
	TagCapitalization // BH
	TagDiacritics     // Dİ
	TagAbbreviation   // KI

	// Morphophonology
	TagConsonantVoicing      // ÜzY
	TagVowelDropping         // ÜDü
	TagVowelHarmony          // ÜU
	TagBufferLetter          // KH
	TagConsonantAssimilation // ÜzB
	TagVowelNarrowing        // ÜDa
	TagConsonantDoubling     // ÜzT

	// Grammar
	TagSequencing          // SI
	TagCase                // DU
	TagNumber              // SA
	TagPossession          // İY
	TagVoice               // ÇA
	TagTense               // ZA
	TagMood                // KİP
	TagAspect              // GÖ
	TagNegation            // OL
	TagPerson              // ŞA
	TagNonFiniteVerb       // ÇF
	TagInterrogative       // SE
	TagKiUsage             // KK
	TagUnnecessaryAffix    // GE
	TagLexicalCategory     // ST
	TagDerivation          // TÜ
	TagAllomorphy          // AB
	TagFinalInitialMerge   // KEG
	TagDescriptiveCompound // KBF

	// Other
	TagWordError       // SH
	TagAwkwardPhrasing // İB
	TagUnclearMeaning  // AnB
	TagStyle           // ÜS
	TagDigitalization  // DİJ

	tagCount
)

// Group is the coarse family a Tag belongs to.
type Group uint8

const (
	GroupNone Group = iota
	GroupOrthography
	GroupMorphophonology
	GroupGrammar
	GroupOther
)

func (g Group) String() string {
	switch g {
	case GroupOrthography:
		return "Orthography"
	case GroupMorphophonology:
		return "Morphophonology"
	case GroupGrammar:
		return "Grammar"
	case GroupOther:
		return "Other"
	default:
		return "None"
	}
}

type tagInfo struct {
	code  string
	name  string
	group Group
}

var tagTable = [tagCount]tagInfo{
	TagUnknown: {"", "Unknown", GroupNone},

	TagPunctuation:    {"NO", "Punctuation", GroupOrthography},
	TagSpelling:       {"YA", "Spelling", GroupOrthography},
	TagSpacing:        {"BA", "Spacing", GroupOrthography},
	TagCapitalization: {"BH", "Capitalization", GroupOrthography},
	TagDiacritics:     {"Dİ", "Diacritics", GroupOrthography},
	TagAbbreviation:   {"KI", "Abbreviation", GroupOrthography},

	TagConsonantVoicing:      {"ÜzY", "ConsonantVoicing", GroupMorphophonology},
	TagVowelDropping:         {"ÜDü", "VowelDropping", GroupMorphophonology},
	TagVowelHarmony:          {"ÜU", "VowelHarmony", GroupMorphophonology},
	TagBufferLetter:          {"KH", "BufferLetter", GroupMorphophonology},
	TagConsonantAssimilation: {"ÜzB", "ConsonantAssimilation", GroupMorphophonology},
	TagVowelNarrowing:        {"ÜDa", "VowelNarrowing", GroupMorphophonology},
	TagConsonantDoubling:     {"ÜzT", "ConsonantDoubling", GroupMorphophonology},

	TagSequencing:          {"SI", "Sequencing", GroupGrammar},
	TagCase:                {"DU", "Case", GroupGrammar},
	TagNumber:              {"SA", "Number", GroupGrammar},
	TagPossession:          {"İY", "Possession", GroupGrammar},
	TagVoice:               {"ÇA", "Voice", GroupGrammar},
	TagTense:               {"ZA", "Tense", GroupGrammar},
	TagMood:                {"KİP", "Mood", GroupGrammar},
	TagAspect:              {"GÖ", "Aspect", GroupGrammar},
	TagNegation:            {"OL", "Negation", GroupGrammar},
	TagPerson:              {"ŞA", "Person", GroupGrammar},
	TagNonFiniteVerb:       {"ÇF", "NonFiniteVerb", GroupGrammar},
	TagInterrogative:       {"SE", "InterrogativeParticle", GroupGrammar},
	TagKiUsage:             {"KK", "KiUsage", GroupGrammar},
	TagUnnecessaryAffix:    {"GE", "UnnecessaryAffix", GroupGrammar},
	TagLexicalCategory:     {"ST", "LexicalCategory", GroupGrammar},
	TagDerivation:          {"TÜ", "Derivation", GroupGrammar},
	TagAllomorphy:          {"AB", "Allomorphy", GroupGrammar},
	TagFinalInitialMerge:   {"KEG", "FinalInitialMerge", GroupGrammar},
	TagDescriptiveCompound: {"KBF", "DescriptiveCompoundVerb", GroupGrammar},

	TagWordError:       {"SH", "WordError", GroupOther},
	TagAwkwardPhrasing: {"İB", "AwkwardPhrasing", GroupOther},
	TagUnclearMeaning:  {"AnB", "UnclearMeaning", GroupOther},
	TagStyle:           {"ÜS", "Style", GroupOther},
	TagDigitalization:  {"DİJ", "DigitalizationError", GroupOther},
}

var tagsByCode = func() map[string]Tag {
	m := make(map[string]Tag, tagCount)
	for t := TagUnknown + 1; t < tagCount; t++ {
		m[tagTable[t].code] = t
	}
	return m
}()

// ParseTag maps an annotation label to its Tag. Labels exported from
// spreadsheets often arrive decomposed (I + combining dot), so the label is
// composed to NFC before lookup.
func ParseTag(label string) Tag {
	code := norm.NFC.String(strings.TrimSpace(label))
	if t, ok := tagsByCode[code]; ok {
		return t
	}
	return TagUnknown
}

// Tags returns every known tag in declaration order.
func Tags() []Tag {
	out := make([]Tag, 0, tagCount-1)
	for t := TagUnknown + 1; t < tagCount; t++ {
		out = append(out, t)
	}
	return out
}

func (t Tag) info() tagInfo {
	if t >= tagCount {
		return tagTable[TagUnknown]
	}
	return tagTable[t]
}

// Code is the label used in the annotation tool, e.g. "YA".
func (t Tag) Code() string { return t.info().code }

// Name is the English name of the category, e.g. "Spelling".
func (t Tag) Name() string { return t.info().name }

// Group returns the family of the category.
func (t Tag) Group() Group { return t.info().group }

func (t Tag) String() string { return t.Name() }
