package conllu

import (
	"errors"
	"testing"
)

const sample = "# newdoc\n" +
	"# sent_id = 1\n" +
	"# text = Ali okula gidiyor.\n" +
	"1\tAli\tAli\tPROPN\tProp\tCase=Nom|Number=Sing\t3\tnsubj\t_\tTokenRange=0:3\n" +
	"2\tokula\tokul\tNOUN\tNoun\tCase=Dat|Number=Sing\t3\tobl\t_\tTokenRange=4:9\n" +
	"3\tgidiyor\tgit\tVERB\tVerb\tAspect=Prog|Mood=Ind|Tense=Pres\t0\troot\t_\tSpaceAfter=No|TokenRange=10:17\n" +
	"4\t.\t.\tPUNCT\tPunc\t_\t3\tpunct\t_\tSpaceAfter=No|TokenRange=17:18\n" +
	"\n" +
	"# sent_id = 2\n" +
	"# text = Evdeyim.\n" +
	"1-2\tEvdeyim\t_\t_\t_\t_\t_\t_\t_\tTokenRange=19:26\n" +
	"1\tEvde\tev\tNOUN\tNoun\tCase=Loc\t0\troot\t_\t_\n" +
	"2\tyim\ti\tAUX\tZero\tNumber=Sing|Person=1\t1\tcop\t_\t_\n" +
	"2.1\tx\tx\tX\tX\t_\t_\t_\t_\t_\n" +
	"3\t.\t.\tPUNCT\tPunc\t_\t1\tpunct\t_\tSpaceAfter=No|TokenRange=26:27\n" +
	"\n"

func TestParseDocument(t *testing.T) {
	doc, err := ParseString(sample)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Sentences) != 2 {
		t.Fatalf("got %d sentences, want 2", len(doc.Sentences))
	}
	if got := doc.SentenceText(0); got != "Ali okula gidiyor." {
		t.Fatalf("sentence 0 text = %q", got)
	}
	lines := doc.Lines()
	if len(lines) != 8 {
		t.Fatalf("got %d lines, want 8 (empty node skipped)", len(lines))
	}

	verb := lines[2]
	if verb.Form != "gidiyor" || verb.Lemma != "git" || verb.UPOS != "VERB" || verb.Head != 0 {
		t.Fatalf("verb line = %+v", verb)
	}
	if !verb.HasRange || verb.Start != 10 || verb.End != 17 {
		t.Fatalf("verb range = %d:%d (%v)", verb.Start, verb.End, verb.HasRange)
	}
	if verb.Feats != "Aspect=Prog|Mood=Ind|Tense=Pres" {
		t.Fatalf("feats = %q", verb.Feats)
	}

	mwt := lines[4]
	if !mwt.ID.IsRange() || mwt.ID.First != 1 || mwt.ID.Last != 2 || mwt.Sentence != 1 {
		t.Fatalf("multiword line = %+v", mwt)
	}
	if lines[5].HasRange {
		t.Fatalf("component line should carry no range: %+v", lines[5])
	}
	if lines[5].String() != "1\tEvde\tev\tNOUN\tNoun\tCase=Loc\t0\troot\t_\t_" {
		t.Fatalf("String() = %q", lines[5].String())
	}
}

func TestParseTokenID(t *testing.T) {
	tests := []struct {
		in      string
		want    TokenID
		wantErr bool
	}{
		{"7", TokenID{7, 7}, false},
		{"3-4", TokenID{3, 4}, false},
		{"4-3", TokenID{}, true},
		{"x", TokenID{}, true},
		{"3-", TokenID{}, true},
	}
	for _, tt := range tests {
		got, err := ParseTokenID(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTokenID(%q) err = %v", tt.in, err)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseTokenID(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if err != nil && !errors.Is(err, ErrSyntax) {
			t.Errorf("ParseTokenID(%q) err = %v, want ErrSyntax", tt.in, err)
		}
	}
}

func TestBadTokenRange(t *testing.T) {
	_, err := ParseString("1\ta\ta\tX\tX\t_\t0\troot\t_\tTokenRange=4\n")
	if !errors.Is(err, ErrSyntax) {
		t.Fatalf("err = %v, want ErrSyntax", err)
	}
}

func TestNoTrailingBlankLine(t *testing.T) {
	doc, err := ParseString("# text = a\n1\ta\ta\tX\tX\t_\t0\troot\t_\tTokenRange=0:1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Sentences) != 1 || len(doc.Sentences[0].Lines) != 1 {
		t.Fatalf("doc = %+v", doc)
	}
}
