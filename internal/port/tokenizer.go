package port

import "iter"

type Tokenizer interface {
	Tokens(text string) iter.Seq[string]

	Terms(text string) iter.Seq[string]
}
