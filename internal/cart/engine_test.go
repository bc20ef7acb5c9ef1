package cart

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/botica-storefront/internal/domain"
)

var (
	paracetamol = domain.Product{ID: 1, Name: "Paracetamol 500mg", Price: domain.MustMoney("15.50"), Presentation: "CAJA"}
	ibuprofeno  = domain.Product{ID: 2, Name: "Ibuprofeno 400mg", Price: domain.MustMoney("8.90")}
	crema       = domain.Product{ID: 3, Name: "Crema Hidratante", Price: domain.MustMoney("21.00"), Presentation: "TUBO"}
)

func TestEngine_Add(t *testing.T) {
	t.Run("same product and presentation increments", func(t *testing.T) {
		e := NewEngine()
		e.Add(paracetamol, "")
		key := e.Add(paracetamol, "")

		require.Equal(t, 1, e.Len())
		line, ok := e.Line(key)
		require.True(t, ok)
		assert.Equal(t, 2, line.Quantity)
		assert.Equal(t, "CAJA", line.Presentation)
	})

	t.Run("explicit presentation matching the default merges", func(t *testing.T) {
		e := NewEngine()
		e.Add(paracetamol, "")
		e.Add(paracetamol, "CAJA")

		require.Equal(t, 1, e.Len())
		assert.Equal(t, 2, e.Lines()[0].Quantity)
	})

	t.Run("different presentations stay distinct", func(t *testing.T) {
		e := NewEngine()
		e.Add(paracetamol, "CAJA")
		e.Add(paracetamol, "BLISTER")

		require.Equal(t, 2, e.Len())
		lines := e.Lines()
		assert.Equal(t, "CAJA", lines[0].Presentation)
		assert.Equal(t, "BLISTER", lines[1].Presentation)
		assert.Equal(t, 1, lines[0].Quantity)
		assert.Equal(t, 1, lines[1].Quantity)
	})

	t.Run("missing product presentation resolves to UNIDAD", func(t *testing.T) {
		e := NewEngine()
		key := e.Add(ibuprofeno, "")
		assert.Equal(t, domain.DefaultPresentation, key.Presentation)
	})

	t.Run("price is snapshotted at add time", func(t *testing.T) {
		e := NewEngine()
		p := crema
		key := e.Add(p, "")
		p.Price = domain.MustMoney("99.00")
		e.Add(p, "")

		line, _ := e.Line(key)
		assert.Equal(t, domain.MustMoney("21.00"), line.UnitPrice)
		assert.Equal(t, domain.MustMoney("42.00"), e.Total())
	})

	t.Run("no stock ceiling", func(t *testing.T) {
		e := NewEngine()
		p := paracetamol
		p.Stock = 1
		for i := 0; i < 5; i++ {
			e.Add(p, "")
		}
		assert.Equal(t, 5, e.Count())
	})
}

func TestEngine_UpdateQuantity(t *testing.T) {
	e := NewEngine()
	key := e.Add(paracetamol, "")

	assert.True(t, e.UpdateQuantity(key, 4))
	line, _ := e.Line(key)
	assert.Equal(t, 5, line.Quantity)

	for _, delta := range []int{-1, -4, -5, -1000000} {
		e.UpdateQuantity(key, delta)
		line, ok := e.Line(key)
		require.True(t, ok, "decrement must never remove the line")
		assert.GreaterOrEqual(t, line.Quantity, 1)
	}
	line, _ = e.Line(key)
	assert.Equal(t, 1, line.Quantity)

	assert.False(t, e.UpdateQuantity(domain.LineKey{ProductID: 99, Presentation: "CAJA"}, 1))
}

func TestEngine_UpdateQuantityNeverWraps(t *testing.T) {
	tests := []struct {
		name   string
		start  int
		deltas []int
		want   int
	}{
		{"max int on a small line caps", 2, []int{math.MaxInt}, domain.MaxQuantity},
		{"huge delta caps", 1, []int{1 << 60}, domain.MaxQuantity},
		{"repeated growth stays capped", 1, []int{domain.MaxQuantity, domain.MaxQuantity, 1}, domain.MaxQuantity},
		{"exact fit reaches the cap", 1, []int{domain.MaxQuantity - 1}, domain.MaxQuantity},
		{"min int floors at one", 3, []int{math.MinInt}, 1},
		{"capped line can come back down", 1, []int{math.MaxInt, -(domain.MaxQuantity - 5)}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine()
			key := e.Add(paracetamol, "")
			e.UpdateQuantity(key, tt.start-1)

			for _, d := range tt.deltas {
				require.True(t, e.UpdateQuantity(key, d))
			}

			line, _ := e.Line(key)
			assert.Equal(t, tt.want, line.Quantity)
			assert.Equal(t, paracetamol.Price.Times(tt.want), e.Total())
			assert.Positive(t, e.Total())
		})
	}
}

func TestEngine_AddStopsAtMaxQuantity(t *testing.T) {
	e := NewEngine()
	key := e.Add(ibuprofeno, "")
	e.UpdateQuantity(key, math.MaxInt)

	e.Add(ibuprofeno, "")

	line, _ := e.Line(key)
	assert.Equal(t, domain.MaxQuantity, line.Quantity)
}

func TestEngine_TotalSaturatesInsteadOfWrapping(t *testing.T) {
	e := NewEngine()
	for id := int64(1); id <= 3; id++ {
		key := e.Add(domain.Product{ID: id, Name: "Equipo", Price: domain.Money(math.MaxInt64 / 4)}, "")
		e.UpdateQuantity(key, 10)
	}

	assert.Equal(t, domain.Money(math.MaxInt64), e.Total())
}

func TestEngine_Remove(t *testing.T) {
	e := NewEngine()
	key := e.Add(paracetamol, "")
	e.Add(ibuprofeno, "")

	e.Remove(key)
	e.Remove(key)
	e.Remove(domain.LineKey{ProductID: 404, Presentation: "X"})

	require.Equal(t, 1, e.Len())
	assert.Equal(t, ibuprofeno.ID, e.Lines()[0].Product.ID)
}

func TestEngine_TotalScenario(t *testing.T) {
	e := NewEngine()
	k := e.Add(paracetamol, "")
	e.UpdateQuantity(k, 1)
	e.Add(ibuprofeno, "")

	assert.Equal(t, "39.90", e.Total().String())
	assert.Equal(t, 3, e.Count())
}

func TestEngine_TotalMatchesLinesUnderRandomOps(t *testing.T) {
	products := []domain.Product{paracetamol, ibuprofeno, crema}
	presentations := []string{"", "CAJA", "BLISTER"}
	rng := rand.New(rand.NewSource(7))
	e := NewEngine()

	for i := 0; i < 2000; i++ {
		switch rng.Intn(3) {
		case 0:
			e.Add(products[rng.Intn(len(products))], presentations[rng.Intn(len(presentations))])
		case 1:
			if lines := e.Lines(); len(lines) > 0 {
				e.UpdateQuantity(lines[rng.Intn(len(lines))].Key(), rng.Intn(21)-10)
			}
		case 2:
			if lines := e.Lines(); len(lines) > 0 && rng.Intn(4) == 0 {
				e.Remove(lines[rng.Intn(len(lines))].Key())
			}
		}

		var want domain.Money
		for _, l := range e.Lines() {
			require.GreaterOrEqual(t, l.Quantity, 1)
			want = want.Plus(l.UnitPrice.Times(l.Quantity))
		}
		require.Equal(t, want, e.Total())
	}
}

func TestEngine_LinesIsACopy(t *testing.T) {
	e := NewEngine()
	e.Add(paracetamol, "")
	lines := e.Lines()
	lines[0].Quantity = 50

	assert.Equal(t, 1, e.Lines()[0].Quantity)
}

func TestEngine_Clear(t *testing.T) {
	e := NewEngine()
	e.Add(paracetamol, "")
	e.Add(ibuprofeno, "")
	e.Clear()

	assert.Zero(t, e.Len())
	assert.Zero(t, e.Total())
}
