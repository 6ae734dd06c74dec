// Package counter is a small annotated Go sample.
package counter

/*
Counter counts things.
*/
type Counter struct {
	n int // current value
}

// Inc adds one.
func (c *Counter) Inc() { c.n++ }

// Expected counts:
// Blank: 3
// Comment: 5
// Code: 5
// Total: 13
