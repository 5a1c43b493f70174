package link

import "github.com/ansel1/merry/v2"

// deferWrap attaches a stack to a returned error.
func deferWrap(err *error) {
	if err != nil {
		*err = merry.WrapSkipping(*err, 1)
	}
}
