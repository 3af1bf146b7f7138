package entry

var defaultRegistry = NewRegistry()

// Default returns the registry behind the module's generated exports.
func Default() *Registry {
	return defaultRegistry
}

// MustRegister registers fn on the default registry. Generated code calls it
// from init().
func MustRegister(desc Descriptor, fn any) *Entry {
	return defaultRegistry.MustRegister(desc, fn)
}

// Invoke runs an invocation export on the default registry.
func Invoke(export string, addr, size uint32) uint32 {
	return defaultRegistry.Invoke(export, addr, size)
}

// Info runs an introspection export on the default registry.
func Info(export string) uint32 {
	return defaultRegistry.Info(export)
}
