package sdk

import "reflect"

// Symbols exposes this package to interpreted extension source.
// Keys follow the interpreter's "import/path/name" convention.
var Symbols = map[string]map[string]reflect.Value{
	"extensions.GO/sdk/sdk": {
		"Binding":           reflect.ValueOf((*Binding)(nil)),
		"Capabilities":      reflect.ValueOf((*Capabilities)(nil)),
		"Collection":        reflect.ValueOf((*Collection)(nil)),
		"Context":           reflect.ValueOf((*Context)(nil)),
		"CronHandler":       reflect.ValueOf((*CronHandler)(nil)),
		"DefaultExceptions": reflect.ValueOf(DefaultExceptions),
		"Endpoint":          reflect.ValueOf((*Endpoint)(nil)),
		"EndpointFunc":      reflect.ValueOf((*EndpointFunc)(nil)),
		"EventHandler":      reflect.ValueOf((*EventHandler)(nil)),
		"Exceptions":        reflect.ValueOf((*Exceptions)(nil)),
		"Field":             reflect.ValueOf((*Field)(nil)),
		"HookFunc":          reflect.ValueOf((*HookFunc)(nil)),
		"ItemsService":      reflect.ValueOf((*ItemsService)(nil)),
		"On":                reflect.ValueOf(On),
		"OnEvent":           reflect.ValueOf((*OnEvent)(nil)),
		"Router":            reflect.ValueOf((*Router)(nil)),
		"Schedule":          reflect.ValueOf(Schedule),
		"Scheduled":         reflect.ValueOf((*Scheduled)(nil)),
		"SchemaOverview":    reflect.ValueOf((*SchemaOverview)(nil)),
		"Services":          reflect.ValueOf((*Services)(nil)),
	},
}
