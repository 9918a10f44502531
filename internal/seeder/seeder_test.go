package seeder_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/Lumos-Labs-HQ/colonize/internal/database/memory"
	"github.com/Lumos-Labs-HQ/colonize/internal/seeder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func organisations() seeder.Factory {
	return seeder.Func("organisations", func(refs *seeder.Refs) (*seeder.Definition, error) {
		return &seeder.Definition{
			Collection: "organisations",
			Entities: []seeder.Entity{
				{Key: "primary", Data: seeder.Document{"name": "Apple"}},
				{Key: "secondary", Data: seeder.Document{"name": "Microsoft"}},
			},
		}, nil
	})
}

func users() seeder.Factory {
	return seeder.Func("users", func(refs *seeder.Refs) (*seeder.Definition, error) {
		owner, err := refs.ID("organisations", "primary")
		if err != nil {
			return nil, err
		}
		return &seeder.Definition{
			Collection: "users",
			Entities: []seeder.Entity{
				{Key: "primary", Data: seeder.Document{"name": "Mike Vercoelen", "ownedBy": owner}},
				{Key: "secondary", Data: seeder.Document{"name": "Tom Grooffer", "ownedBy": owner}},
			},
		}, nil
	})
}

// posts depends on users, which depends on organisations.
func posts() seeder.Factory {
	return seeder.Func("posts", func(refs *seeder.Refs) (*seeder.Definition, error) {
		author, err := refs.ID("users", "secondary")
		if err != nil {
			return nil, err
		}
		org, err := refs.Lookup("organisations.secondary.name")
		if err != nil {
			return nil, err
		}
		return &seeder.Definition{
			Collection: "posts",
			Entities: []seeder.Entity{
				{Key: "welcome", Data: seeder.Document{"author": author, "title": "Hello from " + org.(string)}},
			},
		}, nil
	})
}

func TestSeedResolvesDependenciesAcrossPasses(t *testing.T) {
	store := memory.New()
	s := seeder.New(store)

	result, err := s.Seed(context.Background(), []seeder.Factory{users(), organisations()})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Passes)
	assert.Equal(t, []string{"organisations", "users"}, result.Order)
	assert.Len(t, result.Refs, 2)
	require.Contains(t, result.Refs, "organisations")
	require.Contains(t, result.Refs, "users")
	require.Contains(t, result.Refs["organisations"], "primary")

	assert.Equal(t, "Apple", result.Stash["organisations"]["primary"]["name"])
	assert.Equal(t, "Microsoft", result.Stash["organisations"]["secondary"]["name"])
	assert.Equal(t,
		result.Refs["organisations"]["primary"][seeder.IDField],
		result.Stash["users"]["primary"]["ownedBy"])

	assert.Len(t, store.Documents("users"), 2)
	assert.Len(t, store.Documents("organisations"), 2)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 4, result.Count())
}

func TestSeedSinglePassWhenAlreadyOrdered(t *testing.T) {
	result, err := seeder.New(memory.New()).Seed(context.Background(), []seeder.Factory{organisations(), users()})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Passes)
}

func TestSeedIsOrderIndependent(t *testing.T) {
	orders := [][]seeder.Factory{
		{organisations(), users(), posts()},
		{organisations(), posts(), users()},
		{users(), organisations(), posts()},
		{users(), posts(), organisations()},
		{posts(), organisations(), users()},
		{posts(), users(), organisations()},
	}

	var want map[string][]string
	for i, factories := range orders {
		result, err := seeder.New(memory.New()).Seed(context.Background(), factories)
		require.NoError(t, err, "order %d", i)

		got := make(map[string][]string)
		for collection, entities := range result.Stash {
			for key, doc := range entities {
				got[collection] = append(got[collection], fmt.Sprintf("%s=%v", key, doc["name"]))
			}
			sort.Strings(got[collection])
		}
		if want == nil {
			want = got
		}
		assert.Equal(t, want, got, "order %d", i)
		assert.Equal(t, "Hello from Microsoft", result.Stash["posts"]["welcome"]["title"], "order %d", i)
		assert.Equal(t, result.Refs["users"]["secondary"][seeder.IDField], result.Stash["posts"]["welcome"]["author"])
	}
}

func TestSeedDetectsCycle(t *testing.T) {
	a := seeder.Func("alpha", func(refs *seeder.Refs) (*seeder.Definition, error) {
		id, err := refs.ID("beta", "one")
		if err != nil {
			return nil, err
		}
		return &seeder.Definition{Collection: "alpha", Entities: []seeder.Entity{{Key: "one", Data: seeder.Document{"beta": id}}}}, nil
	})
	b := seeder.Func("beta", func(refs *seeder.Refs) (*seeder.Definition, error) {
		id, err := refs.ID("alpha", "one")
		if err != nil {
			return nil, err
		}
		return &seeder.Definition{Collection: "beta", Entities: []seeder.Entity{{Key: "one", Data: seeder.Document{"alpha": id}}}}, nil
	})

	store := memory.New()
	_, err := seeder.New(store).Seed(context.Background(), []seeder.Factory{organisations(), a, b})
	require.Error(t, err)

	var unresolvable *seeder.UnresolvableDependencyError
	require.True(t, errors.As(err, &unresolvable))
	assert.Equal(t, []string{"alpha", "beta"}, unresolvable.Collections())
	assert.Contains(t, err.Error(), "alpha (waiting on beta.one)")
	assert.Contains(t, err.Error(), "beta (waiting on alpha.one)")

	// organisations resolved before the deadlock was detected and is not rolled back
	assert.Len(t, store.Documents("organisations"), 2)
}

func TestSeedDetectsMissingDependency(t *testing.T) {
	_, err := seeder.New(memory.New()).Seed(context.Background(), []seeder.Factory{users()})

	var unresolvable *seeder.UnresolvableDependencyError
	require.ErrorAs(t, err, &unresolvable)
	require.Len(t, unresolvable.Stuck, 1)
	assert.Equal(t, "users", unresolvable.Stuck[0].Name)
	assert.Equal(t, "organisations", unresolvable.Stuck[0].Missing.Collection)
	assert.Equal(t, "primary", unresolvable.Stuck[0].Missing.Entity)
}

func TestSeedRejectsDuplicateAcrossFactories(t *testing.T) {
	late := seeder.Func("organisations", func(refs *seeder.Refs) (*seeder.Definition, error) {
		if _, err := refs.ID("users", "primary"); err != nil {
			return nil, err
		}
		return &seeder.Definition{
			Collection: "organisations",
			Entities:   []seeder.Entity{{Key: "primary", Data: seeder.Document{"name": "Apple again"}}},
		}, nil
	})

	store := memory.New()
	_, err := seeder.New(store).Seed(context.Background(), []seeder.Factory{late, users(), organisations()})

	var dup *seeder.DuplicateCollectionError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "organisations", dup.Collection)
	assert.Len(t, store.Documents("organisations"), 2, "the second definition writes nothing")
}

func TestSeedRejectsReusedCollectionKey(t *testing.T) {
	first := seeder.Static(&seeder.Definition{
		Collection: "users",
		Entities:   []seeder.Entity{{Key: "a", Data: seeder.Document{"name": "A"}}},
	})
	second := seeder.Static(&seeder.Definition{
		Collection: "users",
		Entities:   []seeder.Entity{{Key: "b", Data: seeder.Document{"name": "B"}}},
	})

	store := memory.New()
	_, err := seeder.New(store).Seed(context.Background(), []seeder.Factory{first, second})

	var dup *seeder.DuplicateCollectionError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "users", dup.Collection)
	assert.Len(t, store.Documents("users"), 1)

	empty := seeder.Static(&seeder.Definition{Collection: "users"})
	_, err = seeder.New(memory.New()).Seed(context.Background(), []seeder.Factory{empty, first})
	assert.ErrorAs(t, err, &dup, "a definition without entities still claims its key")
}

func TestSeedStashIsolatedFromFactories(t *testing.T) {
	orgs := seeder.Static(&seeder.Definition{
		Collection: "orgs",
		Entities: []seeder.Entity{{Key: "p", Data: seeder.Document{
			"profile": map[string]interface{}{"city": "Amsterdam"},
		}}},
	})
	meddler := seeder.Func("people", func(refs *seeder.Refs) (*seeder.Definition, error) {
		v, err := refs.Lookup("orgs.p.profile")
		if err != nil {
			return nil, err
		}
		v.(map[string]interface{})["city"] = "Rotterdam"
		return &seeder.Definition{Collection: "people"}, nil
	})

	result, err := seeder.New(memory.New()).Seed(context.Background(), []seeder.Factory{meddler, orgs})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"city": "Amsterdam"}, result.Stash["orgs"]["p"]["profile"])
}

func TestSeedRejectsDuplicateWithinDefinition(t *testing.T) {
	store := memory.New()
	f := seeder.Static(&seeder.Definition{
		Collection: "tags",
		Entities: []seeder.Entity{
			{Key: "go", Data: seeder.Document{"name": "go"}},
			{Key: "go", Data: seeder.Document{"name": "golang"}},
		},
	})

	_, err := seeder.New(store).Seed(context.Background(), []seeder.Factory{f})

	var dup *seeder.DuplicateEntityError
	require.ErrorAs(t, err, &dup)
	assert.Empty(t, store.Documents("tags"), "nothing is written for an invalid definition")
}

func TestSeedPersistenceFailureIsFatal(t *testing.T) {
	boom := errors.New("connection reset")
	store := memory.New()
	store.FailOn = map[string]error{"people": boom}

	calls := 0
	f := seeder.Func("users", func(refs *seeder.Refs) (*seeder.Definition, error) {
		calls++
		return &seeder.Definition{
			Collection: "users",
			Model:      "people",
			Entities:   []seeder.Entity{{Key: "primary", Data: seeder.Document{"name": "Mike"}}},
		}, nil
	})

	_, err := seeder.New(store).Seed(context.Background(), []seeder.Factory{f, organisations()})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls, "persistence failures are not retried")

	var unresolvable *seeder.UnresolvableDependencyError
	assert.False(t, errors.As(err, &unresolvable))
}

func TestSeedFactoryErrorIsFatal(t *testing.T) {
	bad := errors.New("bad fixture")
	f := seeder.Func("broken", func(refs *seeder.Refs) (*seeder.Definition, error) {
		return nil, bad
	})

	_, err := seeder.New(memory.New()).Seed(context.Background(), []seeder.Factory{organisations(), f})
	assert.ErrorIs(t, err, bad)
	assert.Contains(t, err.Error(), "factory broken failed")
}

func TestSeedFieldNotFoundIsFatal(t *testing.T) {
	f := seeder.Func("users", func(refs *seeder.Refs) (*seeder.Definition, error) {
		v, err := refs.Lookup("organisations.primary.address.city")
		if err != nil {
			return nil, err
		}
		return &seeder.Definition{Collection: "users", Entities: []seeder.Entity{{Key: "x", Data: seeder.Document{"city": v}}}}, nil
	})

	_, err := seeder.New(memory.New()).Seed(context.Background(), []seeder.Factory{f, organisations()})

	var notFound *seeder.FieldNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "address", notFound.Field)
}

func TestSeedUsesModelName(t *testing.T) {
	store := memory.New()
	f := seeder.Static(&seeder.Definition{
		Collection: "admins",
		Model:      "users",
		Entities:   []seeder.Entity{{Key: "root", Data: seeder.Document{"name": "root"}}},
	})

	result, err := seeder.New(store).Seed(context.Background(), []seeder.Factory{f})
	require.NoError(t, err)
	assert.Contains(t, result.Refs, "admins")
	assert.Equal(t, []string{"users"}, store.CollectionNames())
}

func TestSeedEmpty(t *testing.T) {
	result, err := seeder.New(memory.New()).Seed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Refs)
	assert.Empty(t, result.Stash)
	assert.Zero(t, result.Passes)
}

func TestSeedStartsFresh(t *testing.T) {
	s := seeder.New(memory.New())
	factories := []seeder.Factory{organisations()}

	_, err := s.Seed(context.Background(), factories)
	require.NoError(t, err)
	_, err = s.Seed(context.Background(), factories)
	require.NoError(t, err, "a second run must not see the first run's entities")
}

func TestSeedReportsProgress(t *testing.T) {
	var out bytes.Buffer
	s := seeder.New(memory.New(), seeder.WithReporter(seeder.NewReporter(&out)))

	_, err := s.Seed(context.Background(), []seeder.Factory{users(), organisations()})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Pass 1: users, organisations")
	assert.Contains(t, out.String(), "users waiting on organisations.primary")
	assert.Contains(t, out.String(), "Pass 2: users")
}

func TestSeedNamesAnonymousFactories(t *testing.T) {
	f := seeder.Func("", func(refs *seeder.Refs) (*seeder.Definition, error) {
		return nil, &seeder.DependencyMissingError{Collection: "ghosts", Entity: "one"}
	})

	_, err := seeder.New(memory.New()).Seed(context.Background(), []seeder.Factory{f})

	var unresolvable *seeder.UnresolvableDependencyError
	require.ErrorAs(t, err, &unresolvable)
	assert.Equal(t, []string{"factory#0"}, unresolvable.Collections())
}
