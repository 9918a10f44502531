package fixtures

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Faker generates placeholder values for `!fake <kind>` scalars.
type Faker struct {
	rand    *rand.Rand
	counter int
	epoch   time.Time // timestamps are generated in the year before epoch
}

// seededEpoch anchors timestamps of seeded fakers so they do not drift with
// the wall clock.
var seededEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func NewFaker(seed int64) *Faker {
	return &Faker{
		rand:  rand.New(rand.NewSource(seed)),
		epoch: seededEpoch,
	}
}

func newTimeSeededFaker() *Faker {
	now := time.Now()
	f := NewFaker(now.UnixNano())
	f.epoch = now.UTC().Truncate(time.Second)
	return f
}

// Fake returns a value of the given kind.
func (g *Faker) Fake(kind string) (interface{}, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "name":
		return g.name(), nil
	case "email":
		return g.email(), nil
	case "title":
		return g.title(), nil
	case "sentence", "description", "content":
		return g.sentence(), nil
	case "word":
		return g.word(), nil
	case "url", "link":
		return fmt.Sprintf("https://example.com/page/%d", g.rand.Intn(1000)), nil
	case "phone":
		return fmt.Sprintf("+1-%03d-%03d-%04d", g.rand.Intn(1000), g.rand.Intn(1000), g.rand.Intn(10000)), nil
	case "address":
		return fmt.Sprintf("%d Main Street, City, State %05d", g.rand.Intn(9999)+1, g.rand.Intn(100000)), nil
	case "uuid":
		id, err := uuid.NewRandomFromReader(g.rand)
		if err != nil {
			return nil, err
		}
		return id.String(), nil
	case "int", "integer":
		return g.rand.Intn(1000000) + 1, nil
	case "float", "decimal":
		return g.rand.Float64() * 10000, nil
	case "bool", "boolean":
		return g.rand.Intn(2) == 1, nil
	case "timestamp", "datetime":
		return g.timestamp(), nil
	case "date":
		return g.timestamp().Format("2006-01-02"), nil
	default:
		return nil, fmt.Errorf("unknown fake kind %q", kind)
	}
}

func (g *Faker) name() string {
	firstNames := []string{"John", "Jane", "Alice", "Bob", "Charlie", "Diana", "Eve", "Frank", "Grace", "Henry"}
	lastNames := []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez"}
	return firstNames[g.rand.Intn(len(firstNames))] + " " + lastNames[g.rand.Intn(len(lastNames))]
}

func (g *Faker) email() string {
	g.counter++
	domains := []string{"example.com", "test.com", "demo.com", "mail.com"}
	return fmt.Sprintf("user%d_%d@%s", g.counter, g.rand.Intn(100000), domains[g.rand.Intn(len(domains))])
}

func (g *Faker) title() string {
	titles := []string{
		"Getting Started with Go",
		"Understanding Databases",
		"Introduction to APIs",
		"Modern Software Architecture",
		"Data Structures and Algorithms",
	}
	return titles[g.rand.Intn(len(titles))]
}

func (g *Faker) sentence() string {
	sentences := []string{
		"This is a sample text generated for testing purposes.",
		"Lorem ipsum dolor sit amet, consectetur adipiscing elit.",
		"The quick brown fox jumps over the lazy dog.",
	}
	return sentences[g.rand.Intn(len(sentences))]
}

func (g *Faker) word() string {
	words := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta"}
	return words[g.rand.Intn(len(words))]
}

func (g *Faker) timestamp() time.Time {
	days := g.rand.Intn(365)
	return g.epoch.AddDate(0, 0, -days)
}
