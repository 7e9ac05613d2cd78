package meshsim

// SourceSpec declares an external data provider (forcing data, mesh
// parameters). Sources provide variables but require none.
type SourceSpec struct {
	Name     string
	Provides []string
}

// ModuleSpec declares a computation unit by the variables it consumes and
// produces. The registry does not interpret variable semantics, only names.
type ModuleSpec struct {
	Name     string
	Provides []string
	Requires []string
}

// Registry records the provides/requires declarations of every data source
// and module. It is pure bookkeeping; resolution happens in Build.
type Registry struct {
	sources []SourceSpec
	modules []ModuleSpec
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterSource records an external data provider and the variables it
// supplies.
func (r *Registry) RegisterSource(name string, provides ...string) {
	r.sources = append(r.sources, SourceSpec{Name: name, Provides: provides})
}

// RegisterModule records a module with the variables it provides and requires.
func (r *Registry) RegisterModule(name string, provides, requires []string) {
	r.modules = append(r.modules, ModuleSpec{Name: name, Provides: provides, Requires: requires})
}

// Sources returns the registered sources in registration order.
func (r *Registry) Sources() []SourceSpec {
	return r.sources
}

// Modules returns the registered modules in registration order.
func (r *Registry) Modules() []ModuleSpec {
	return r.modules
}
