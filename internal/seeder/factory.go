package seeder

// Factory builds a definition from the references seeded so far. Build must
// return an error matching ErrDependencyMissing while a reference it needs is
// absent; any other error aborts the run.
type Factory interface {
	// Name is the collection key the factory produces. It identifies the
	// factory when resolution gets stuck.
	Name() string
	Build(refs *Refs) (*Definition, error)
}

type funcFactory struct {
	name  string
	build func(refs *Refs) (*Definition, error)
}

func (f funcFactory) Name() string                          { return f.name }
func (f funcFactory) Build(refs *Refs) (*Definition, error) { return f.build(refs) }

// Func adapts a plain function into a Factory.
func Func(name string, build func(refs *Refs) (*Definition, error)) Factory {
	return funcFactory{name: name, build: build}
}

// Static returns a factory for a definition that references nothing.
func Static(def *Definition) Factory {
	return Func(def.Collection, func(*Refs) (*Definition, error) {
		return def, nil
	})
}
