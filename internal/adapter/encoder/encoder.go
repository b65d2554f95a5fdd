package encoder

import (
	"strings"

	"casebase/internal/domain"
)

// DeriveVocabulary builds the vocabulary from a store header. The last
// column is the outcome label; every preceding column is a symptom.
func DeriveVocabulary(header []string) (domain.Vocabulary, error) {
	if len(header) < 2 {
		return domain.Vocabulary{}, &domain.SchemaError{Reason: "need at least one symptom column and a label column"}
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return domain.NewVocabulary(cols[:len(cols)-1], cols[len(cols)-1])
}

// Encoder converts reported symptom sets into presence vectors.
type Encoder struct {
	vocab  domain.Vocabulary
	strict bool
}

// New creates an encoder. In strict mode unknown symptoms fail encoding;
// otherwise they are dropped.
func New(vocab domain.Vocabulary, strict bool) *Encoder {
	return &Encoder{vocab: vocab, strict: strict}
}

// Vocabulary returns the encoder's vocabulary.
func (e *Encoder) Vocabulary() domain.Vocabulary {
	return e.vocab
}

// Normalize maps reported names onto canonical vocabulary names in
// vocabulary order, dropping duplicates. Unknown names are returned
// separately in input order.
func (e *Encoder) Normalize(symptoms []string) (known, unknown []string) {
	present := make([]bool, e.vocab.Len())
	seenUnknown := make(map[string]bool)
	for _, s := range symptoms {
		if i, ok := e.vocab.Index(s); ok {
			present[i] = true
			continue
		}
		key := domain.NormalizeSymptom(s)
		if key == "" || seenUnknown[key] {
			continue
		}
		seenUnknown[key] = true
		unknown = append(unknown, strings.TrimSpace(s))
	}
	for i, p := range present {
		if p {
			known = append(known, e.vocab.Name(i))
		}
	}
	return known, unknown
}

// Encode produces an N-length vector: 1 for reported symptoms, 0 (or -1
// when signed) otherwise.
func (e *Encoder) Encode(symptoms []string, signed bool) (domain.Vector, error) {
	absent := 0.0
	if signed {
		absent = -1
	}

	vec := make(domain.Vector, e.vocab.Len())
	for i := range vec {
		vec[i] = absent
	}

	var unknown []string
	for _, s := range symptoms {
		i, ok := e.vocab.Index(s)
		if !ok {
			if domain.NormalizeSymptom(s) != "" {
				unknown = append(unknown, strings.TrimSpace(s))
			}
			continue
		}
		vec[i] = 1
	}

	if e.strict && len(unknown) > 0 {
		return nil, &domain.UnknownSymptomError{Names: unknown}
	}
	return vec, nil
}

// Decode returns the symptoms present in v, in vocabulary order.
func (e *Encoder) Decode(v domain.Vector) []string {
	var out []string
	for i, x := range v {
		if i >= e.vocab.Len() {
			break
		}
		if x > 0 {
			out = append(out, e.vocab.Name(i))
		}
	}
	return out
}
