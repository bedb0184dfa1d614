package quote

import (
	"fmt"
	"math/rand"
	"regexp"
	"time"
)

var numberRE = regexp.MustCompile(`^Q-\d{8}-\d{3}$`)

// NumberGenerator issues quote numbers of the form Q-YYYYMMDD-NNN.
// The suffix is random in [100, 999] and is not unique on its own.
type NumberGenerator struct {
	Now  func() time.Time
	Rand *rand.Rand
}

func NewNumberGenerator() *NumberGenerator {
	return &NumberGenerator{
		Now:  time.Now,
		Rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (g *NumberGenerator) Next() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	var n int
	if g.Rand != nil {
		n = 100 + g.Rand.Intn(900)
	} else {
		n = 100 + rand.Intn(900)
	}
	return fmt.Sprintf("Q-%s-%d", now().Format("20060102"), n)
}

// ValidNumber reports whether s looks like a quote number.
func ValidNumber(s string) bool {
	return numberRE.MatchString(s)
}
