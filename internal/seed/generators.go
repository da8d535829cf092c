package seed

import (
	"math/rand"
	"time"

	"github.com/go-faker/faker/v4"
	"github.com/google/uuid"
)

// Generator produces the value of one column for row index row.
type Generator interface {
	Generate(rng *rand.Rand, row int64) any
}

type GeneratorFunc func(rng *rand.Rand, row int64) any

func (f GeneratorFunc) Generate(rng *rand.Rand, row int64) any { return f(rng, row) }

// Serial yields start, start+1, ...
type Serial struct{ Start int64 }

func (g Serial) Generate(_ *rand.Rand, row int64) any { return g.Start + row }

// TimeSeries yields Start + row*Step, truncated to the microsecond so values
// survive a round trip through any of the supported stores.
type TimeSeries struct {
	Start time.Time
	Step  time.Duration
}

func (g TimeSeries) Generate(_ *rand.Rand, row int64) any {
	return g.Start.Add(time.Duration(row) * g.Step).UTC().Truncate(time.Microsecond)
}

// Choice picks one of Values, optionally weighted.
type Choice struct {
	Values  []string
	Weights []float64
}

func (g Choice) Generate(rng *rand.Rand, _ int64) any {
	if len(g.Weights) != len(g.Values) {
		return g.Values[rng.Intn(len(g.Values))]
	}
	total := 0.0
	for _, w := range g.Weights {
		total += w
	}
	r := rng.Float64() * total
	cumulative := 0.0
	for i, w := range g.Weights {
		cumulative += w
		if r < cumulative {
			return g.Values[i]
		}
	}
	return g.Values[len(g.Values)-1]
}

type UniformFloat struct{ Min, Max float64 }

func (g UniformFloat) Generate(rng *rand.Rand, _ int64) any {
	return g.Min + rng.Float64()*(g.Max-g.Min)
}

// Ratio is true with probability P.
type Ratio struct{ P float64 }

func (g Ratio) Generate(rng *rand.Rand, _ int64) any { return rng.Float64() < g.P }

// UUID4 derives a version 4 UUID from rng so seeded runs repeat.
type UUID4 struct{}

func (UUID4) Generate(rng *rand.Rand, _ int64) any {
	b := make([]byte, 16)
	rng.Read(b)
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	u, err := uuid.FromBytes(b)
	if err != nil {
		return uuid.NewString()
	}
	return u.String()
}

var (
	FakerSentence = GeneratorFunc(func(*rand.Rand, int64) any { return faker.Sentence() })
	FakerUsername = GeneratorFunc(func(*rand.Rand, int64) any { return faker.Username() })
	FakerIPv4     = GeneratorFunc(func(*rand.Rand, int64) any { return faker.IPv4() })
	FakerURLPath  = GeneratorFunc(func(*rand.Rand, int64) any { return "/" + faker.Word() + "/" + faker.Word() })
)
