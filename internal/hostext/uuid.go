package hostext

import (
	"github.com/google/uuid"

	"github.com/rowlang/rowlang/internal/global"
	"github.com/rowlang/rowlang/internal/types"
	"github.com/rowlang/rowlang/internal/vm"
)

// unitType is the Unit domain a niladic-looking host extern takes
// (see this package's doc comment for why it isn't truly arity-0).
func unitType() types.Type { return types.Record(types.TEmptyRow{}) }

// RegisterUUID publishes uuid.v4 : Unit -> String, a random RFC 4122
// version-4 identifier in its canonical hyphenated form, using
// github.com/google/uuid — the teacher's own id-generation dependency,
// originally reached for by its build-plugin integration tests
// (_examples/funvibe-funxy/internal/ext) to mint stub-module handles.
// Here it is the id source an embedder's register_type callers reach
// for to name a fresh userdata handle.
func RegisterUUID(e *global.Env) {
	typ := types.Function(unitType(), types.Builtin(types.TagString))
	e.RegisterExtern("uuid.v4", typ, 1, func(t *vm.Thread, _ []vm.Value) (vm.Value, error) {
		obj := &vm.StringObj{Data: uuid.NewString()}
		t.Track(obj)
		return obj, nil
	})
}
