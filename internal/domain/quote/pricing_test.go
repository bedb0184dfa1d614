package quote

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeTotals_SingleWash(t *testing.T) {
	lines := []ServiceLine{{Name: "Wash", UnitPrice: d("100.00"), DiscountPercent: d("10")}}

	got := ComputeTotals(lines, d("10")).Rounded()

	assert.True(t, got.Subtotal.Equal(d("90.00")), "subtotal %s", got.Subtotal)
	assert.True(t, got.Tax.Equal(d("9.00")), "tax %s", got.Tax)
	assert.True(t, got.Total.Equal(d("99.00")), "total %s", got.Total)
}

func TestComputeTotals_Empty(t *testing.T) {
	got := ComputeTotals(nil, d("10"))
	assert.True(t, got.Subtotal.IsZero())
	assert.True(t, got.Tax.IsZero())
	assert.True(t, got.Total.IsZero())
}

func TestComputeTotals_FullDiscountContributesNothing(t *testing.T) {
	lines := []ServiceLine{
		{Name: "Free", UnitPrice: d("12345.67"), DiscountPercent: d("100")},
		{Name: "Paid", UnitPrice: d("50"), DiscountPercent: d("0")},
	}
	got := ComputeTotals(lines, d("0"))
	assert.True(t, got.Subtotal.Equal(d("50")), "subtotal %s", got.Subtotal)
}

func TestComputeTotals_RandomLines(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		n := r.Intn(8)
		lines := make([]ServiceLine, n)
		want := decimal.Zero
		for j := range lines {
			price := decimal.NewFromInt(int64(r.Intn(1000000))).Div(decimal.NewFromInt(100))
			disc := decimal.NewFromInt(int64(r.Intn(101)))
			lines[j] = ServiceLine{UnitPrice: price, DiscountPercent: disc}
			want = want.Add(price.Mul(decimal.NewFromInt(1).Sub(disc.Div(decimal.NewFromInt(100)))))
		}
		rate := decimal.NewFromInt(int64(r.Intn(29)))

		got := ComputeTotals(lines, rate)

		require.True(t, got.Total.Equal(got.Subtotal.Add(got.Tax)))
		require.True(t, got.Subtotal.Round(2).Equal(want.Round(2)), "subtotal %s want %s", got.Subtotal, want)

		rounded := got.Rounded()
		diff := rounded.Total.Sub(rounded.Subtotal.Add(rounded.Tax)).Abs()
		require.True(t, diff.LessThanOrEqual(d("0.01")))
	}
}

func TestSubtotal(t *testing.T) {
	lines := []ServiceLine{
		{UnitPrice: d("8000"), DiscountPercent: d("0")},
		{UnitPrice: d("200"), DiscountPercent: d("25")},
	}
	assert.True(t, Subtotal(lines).Equal(d("8150")))
}

func TestNumberGenerator(t *testing.T) {
	g := &NumberGenerator{
		Now:  func() time.Time { return time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC) },
		Rand: rand.New(rand.NewSource(1)),
	}
	for i := 0; i < 100; i++ {
		n := g.Next()
		require.True(t, ValidNumber(n), n)
		require.Equal(t, "Q-20250304-", n[:11])
	}
	assert.False(t, ValidNumber("Q-2025034-123"))
	assert.False(t, ValidNumber("../etc/passwd"))
}
