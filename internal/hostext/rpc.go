package hostext

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rowlang/rowlang/internal/global"
	"github.com/rowlang/rowlang/internal/symbols"
	"github.com/rowlang/rowlang/internal/types"
	"github.com/rowlang/rowlang/internal/vm"
)

// protoRegistry is one RegisterRPC call's loaded-descriptor set, keyed
// by parsed .proto file name — instance-scoped rather than the
// teacher's package-level var (builtins_grpc.go's protoRegistry/
// protoRegistryMutex), since this Env may outlive one embedding and a
// second RegisterRPC call (a second embedded program) must not share
// descriptors with the first.
type protoRegistry struct {
	mu    sync.RWMutex
	files map[string]*desc.FileDescriptor
}

func (r *protoRegistry) load(path string) error {
	parser := protoparse.Parser{ImportPaths: []string{"."}}
	fds, err := parser.ParseFiles(path)
	if err != nil {
		return fmt.Errorf("rpc.loadProto: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, fd := range fds {
		r.files[fd.GetName()] = fd
	}
	return nil
}

// method resolves "package.Service/Method" to its descriptor, mirroring
// builtins_grpc.go's findMethodDescriptor.
func (r *protoRegistry) method(path string) (*desc.MethodDescriptor, error) {
	serviceName, methodName, ok := splitMethodPath(path)
	if !ok {
		return nil, fmt.Errorf("rpc.call: invalid method path %q, want package.Service/Method", path)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, fd := range r.files {
		if svc := fd.FindService(serviceName); svc != nil {
			if m := svc.FindMethodByName(methodName); m != nil {
				return m, nil
			}
		}
	}
	return nil, fmt.Errorf("rpc.call: method %q not found (did rpc.loadProto load it?)", path)
}

func splitMethodPath(path string) (service, method string, ok bool) {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i], path[i+1:], true
		}
	}
	return "", "", false
}

// rpcConn is the Data behind a dialed channel's Userdata wrapper — an
// *grpc.ClientConn plus the registry of .proto descriptors its calls
// resolve method/message names against.
type rpcConn struct {
	conn  *grpc.ClientConn
	procs *protoRegistry
}

// RegisterRPC publishes rpc.dial, rpc.loadProto and rpc.call, wiring
// google.golang.org/grpc, github.com/jhump/protoreflect and
// google.golang.org/protobuf's dynamic-message machinery exactly the
// way the teacher's lib/grpc and lib/proto virtual packages do
// (_examples/funvibe-funxy/internal/evaluator/builtins_grpc.go):
// protoparse.Parser.ParseFiles loads descriptors, dynamic.NewMessage
// builds request/response messages from them, and
// grpc.ClientConn.Invoke dispatches over the wire — Marshal/Unmarshal
// trade in raw protobuf bytes, never an unconfirmed JSON helper, since
// that is the only encoding builtins_grpc.go itself demonstrates.
//
// A dialed connection is wrapped as a vm.Userdata (spec §3's "opaque
// host-owned data with a traversal hook"): its Trace hook is a no-op
// (a *grpc.ClientConn owns no values this VM's GC needs to see) and its
// Finalizer closes the channel. The VM's sweep does not call Userdata
// finalizers, so a connection the program drops stays open.
func RegisterRPC(e *global.Env, in *symbols.Interner) {
	e.RegisterType("RpcConn", 0)

	stringT := types.Builtin(types.TagString)
	bytesT := types.Array(types.Builtin(types.TagByte))
	connT := types.TOpaque{Name: "RpcConn"}

	e.RegisterExtern("rpc.dial", types.Function(stringT, connT), 1,
		func(t *vm.Thread, args []vm.Value) (vm.Value, error) {
			target, ok := args[0].(*vm.StringObj)
			if !ok {
				return nil, &HostTypeError{Extern: "rpc.dial", Want: "String"}
			}
			conn, err := grpc.NewClient(target.Data, grpc.WithTransportCredentials(insecure.NewCredentials()))
			if err != nil {
				return nil, fmt.Errorf("rpc.dial: %w", err)
			}
			rc := &rpcConn{conn: conn, procs: &protoRegistry{files: map[string]*desc.FileDescriptor{}}}
			obj := &vm.UserdataObj{
				TypeName_: "RpcConn",
				Data:      rc,
				Trace_:    func(func(vm.Value)) {},
				Finalizer: func(any) { conn.Close() },
			}
			t.Track(obj)
			return obj, nil
		})

	e.RegisterExtern("rpc.loadProto", types.Curry([]types.Type{connT, stringT}, unitType()), 2,
		func(t *vm.Thread, args []vm.Value) (vm.Value, error) {
			rc, err := asRpcConn(args[0], "rpc.loadProto")
			if err != nil {
				return nil, err
			}
			path, ok := args[1].(*vm.StringObj)
			if !ok {
				return nil, &HostTypeError{Extern: "rpc.loadProto", Want: "String"}
			}
			if err := rc.procs.load(path.Data); err != nil {
				return nil, err
			}
			return unitValue(t), nil
		})

	e.RegisterExtern("rpc.call", types.Curry([]types.Type{connT, stringT, bytesT}, bytesT), 3,
		func(t *vm.Thread, args []vm.Value) (vm.Value, error) {
			rc, err := asRpcConn(args[0], "rpc.call")
			if err != nil {
				return nil, err
			}
			methodPath, ok := args[1].(*vm.StringObj)
			if !ok {
				return nil, &HostTypeError{Extern: "rpc.call", Want: "String"}
			}
			reqBytes, ok := args[2].(*vm.ArrayObj)
			if !ok || reqBytes.Kind != vm.ElemByte {
				return nil, &HostTypeError{Extern: "rpc.call", Want: "Array<Byte>"}
			}

			md, err := rc.procs.method(methodPath.Data)
			if err != nil {
				return nil, err
			}
			reqMsg := dynamic.NewMessage(md.GetInputType())
			if err := reqMsg.Unmarshal(reqBytes.Bytes); err != nil {
				return nil, fmt.Errorf("rpc.call: encoding request: %w", err)
			}
			respMsg := dynamic.NewMessage(md.GetOutputType())

			fullMethod := methodPath.Data
			if len(fullMethod) == 0 || fullMethod[0] != '/' {
				fullMethod = "/" + fullMethod
			}
			if err := rc.conn.Invoke(context.Background(), fullMethod, reqMsg, respMsg); err != nil {
				return nil, fmt.Errorf("rpc.call: %w", err)
			}
			respBytes, err := respMsg.Marshal()
			if err != nil {
				return nil, fmt.Errorf("rpc.call: decoding response: %w", err)
			}
			respObj := &vm.ArrayObj{Kind: vm.ElemByte, Bytes: respBytes}
			t.Track(respObj)
			return respObj, nil
		})
}

func asRpcConn(v vm.Value, extern string) (*rpcConn, error) {
	u, ok := v.(*vm.UserdataObj)
	if !ok || u.TypeName_ != "RpcConn" {
		return nil, &HostTypeError{Extern: extern, Want: "RpcConn"}
	}
	return u.Data.(*rpcConn), nil
}

func unitValue(t *vm.Thread) vm.Value {
	obj := &vm.DataObj{Layout: &vm.RecordLayout{}}
	t.Track(obj)
	return obj
}
