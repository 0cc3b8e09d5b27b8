package goja

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/slott56/go-rete/core"

	"github.com/dop251/goja"
	"github.com/gorhill/cronexpr"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned by Exec if the execution is
	// interrupted.
	Interrupted = errors.New(InterruptedMessage)

	// IgnoreExit will prevent the Goja function "exit" from
	// terminating the process. Being able to halt the process
	// from Goja is useful for some tests and utilities. Maybe.
	IgnoreExit = false
)

// init adds an Interpreter as one of the DefaultInterpreters.
func init() {
	core.DefaultInterpreters["goja"] = NewInterpreter()
}

// Interpreter implements core.Interpreter using Goja, a Go
// implementation of ECMAScript 5.1+.
//
// See https://github.com/dop251/goja.
type Interpreter struct {

	// Testing exposes runtime capabilities (sleep, exit) that are
	// only useful in tests.
	Testing bool

	// LibraryProvider is a pluggable library provider, used instead
	// of DefaultLibraryProvider when set, for "requires" entries in
	// compiled source.
	LibraryProvider func(ctx context.Context, i *Interpreter, libraryName string) (string, error)
}

// NewInterpreter makes a new Interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// ProvideLibrary resolves the library name into source text.
func (i *Interpreter) ProvideLibrary(ctx context.Context, name string) (string, error) {
	if i.LibraryProvider != nil {
		return i.LibraryProvider(ctx, i, name)
	}
	return DefaultLibraryProvider(ctx, i, name)
}

var DefaultLibraryProvider = MakeFileLibraryProvider(".")

// MakeFileLibraryProvider makes a provider that resolves names of the
// form "file://path", "http://...", or "https://..." relative to dir
// for the file scheme.
func MakeFileLibraryProvider(dir string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		parts := strings.SplitN(name, "://", 2)
		if len(parts) != 2 {
			return "", fmt.Errorf("bad link %q", name)
		}
		switch parts[0] {
		case "file":
			bs, err := ioutil.ReadFile(dir + "/" + parts[1])
			if err != nil {
				return "", err
			}
			return string(bs), nil
		case "http", "https":
			req, err := http.NewRequestWithContext(ctx, "GET", name, nil)
			if err != nil {
				return "", err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return "", err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return "", fmt.Errorf("library fetch status %s", resp.Status)
			}
			bs, err := ioutil.ReadAll(resp.Body)
			if err != nil {
				return "", err
			}
			return string(bs), nil
		default:
			return "", fmt.Errorf("unknown protocol %q", parts[0])
		}
	}
}

// MakeMapLibraryProvider makes a provider backed by an in-memory map,
// used by tests to avoid touching the filesystem or network.
func MakeMapLibraryProvider(srcs map[string]string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		src, have := srcs[name]
		if !have {
			return "", fmt.Errorf("undefined library %q", name)
		}
		return src, nil
	}
}

func wrapSrc(src string) string {
	return fmt.Sprintf("(function() {\n%s\n}());\n", src)
}

// parseSource looks for "requires" and "code" properties in a map
// form of ActionSource.Source.
func parseSource(vv map[string]interface{}) (code string, libs []string, err error) {
	x, have := vv["code"]
	if !have {
		code = ""
	}
	if s, is := x.(string); is {
		code = s
	} else {
		err = errors.New("bad goja action code")
		return
	}

	x, have = vv["requires"]
	switch vv := x.(type) {
	case string:
		libs = []string{vv}
	case []string:
		libs = vv
	case []interface{}:
		libs = make([]string, 0, len(vv))
		for _, x := range vv {
			s, is := x.(string)
			if !is {
				err = errors.New("bad library")
				return
			}
			libs = append(libs, s)
		}
	}

	return
}

// AsSource normalizes an ActionSource.Source value — a plain string,
// or a map with "code"/"requires" keys — into code and a require list.
func AsSource(src interface{}) (code string, libs []string, err error) {
	switch vv := src.(type) {
	case string:
		code = vv
		return
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(vv))
		for k, v := range vv {
			str, ok := k.(string)
			if !ok {
				err = fmt.Errorf("bad src key (%T)", k)
				return
			}
			m[str] = v
		}
		return parseSource(m)
	case map[string]interface{}:
		return parseSource(vv)
	default:
		err = fmt.Errorf("bad goja source (%T)", src)
		return
	}
}

// Compile compiles src (after resolving any "requires" libraries)
// into a *goja.Program.
//
// This can block if the library provider blocks fetching an external
// library.
func (i *Interpreter) Compile(ctx context.Context, src interface{}) (interface{}, error) {
	code, libs, err := AsSource(src)
	if err != nil {
		return nil, err
	}

	code = wrapSrc(code)

	var libsSrc string
	for _, lib := range libs {
		libSrc, err := i.ProvideLibrary(ctx, lib)
		if err != nil {
			return nil, err
		}
		libsSrc += libSrc + "\n"
	}

	code = libsSrc + code

	obj, err := goja.Compile("", code, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", err, code)
	}

	return obj, nil
}

// Exec runs the compiled program against bs.
//
// The runtime exposes an object at "_" with:
//
//	_.bindings:        the current token bindings
//	_.net:              the firing Engine (only set when Exec is called
//	                    from Fire; see core.WithEngine), with AddFact,
//	                    RemoveFact, and UpdateFact methods
//	_.gensym():         a random string
//	_.esc(s):           URL query-escape
//	_.cronNext(expr):   next occurrence of a cron expression, as RFC3339Nano
//	_.log(x):           log.Println a JSON rendering of x
//
// A global sleep(ms) and _.exit(msg) are additionally exposed when
// Testing is set.
//
// The script's return value becomes the Value Eval returns: a
// map[string]interface{} for an action's bindings to merge, a boolean
// for a Test, anything for a Bind.
func (i *Interpreter) Exec(ctx context.Context, bs core.Bindings, src interface{}, compiled interface{}) (core.Value, error) {
	var p *goja.Program
	if compiled == nil {
		var err error
		if compiled, err = i.Compile(ctx, src); err != nil {
			return nil, err
		}
	}
	p, is := compiled.(*goja.Program)
	if !is {
		return nil, fmt.Errorf("goja: bad compilation %T", compiled)
	}

	env := map[string]interface{}{}
	if bs != nil {
		env["bindings"] = map[string]interface{}(bs.Copy())
	} else {
		env["bindings"] = map[string]interface{}{}
	}

	o := goja.New()
	o.Set("_", env)

	if i.Testing {
		o.Set("sleep", func(ms int) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		})
	}

	env["gensym"] = func() interface{} {
		return core.Gensym(32)
	}

	env["cronNext"] = func(x interface{}) interface{} {
		x = export(x)
		cronExpr, is := x.(string)
		if !is {
			panic(o.ToValue("cronNext: not a string"))
		}
		c, err := cronexpr.Parse(cronExpr)
		if err != nil {
			panic(o.ToValue(err.Error()))
		}
		return c.Next(time.Now()).UTC().Format(time.RFC3339Nano)
	}

	env["esc"] = func(x interface{}) interface{} {
		x = export(x)
		s, is := x.(string)
		if !is {
			panic(o.ToValue("esc: not a string"))
		}
		return url.QueryEscape(s)
	}

	env["log"] = func(x interface{}) interface{} {
		x = export(x)
		js, err := json.Marshal(&x)
		if err != nil {
			log.Println("goja.log (can't marshal: " + err.Error() + ")")
		} else {
			log.Println(string(js))
		}
		return x
	}

	if engine, have := core.EngineFromContext(ctx); have {
		env["net"] = newNetObject(ctx, engine)
	}

	if i.Testing {
		env["exit"] = func(msg interface{}) interface{} {
			msg = export(msg)
			log.Println(msg)
			if !IgnoreExit {
				panic(o.ToValue(fmt.Sprint(msg)))
			}
			return msg
		}
	}

	ictx, cancel := context.WithCancel(ctx)
	go func() {
		<-ictx.Done()
		o.Interrupt(InterruptedMessage)
	}()

	v, err := o.RunProgram(p)
	cancel()

	if err != nil {
		if _, is := err.(*goja.InterruptedError); is {
			return nil, Interrupted
		}
		return nil, err
	}

	return export(v.Export()), nil
}

func export(x interface{}) interface{} {
	if v, is := x.(goja.Value); is {
		return v.Export()
	}
	return x
}

// netObject is the value exposed as "_.net": a thin wrapper letting
// script code call back into the engine that is firing it, mirroring
// the teacher's injection of machine-control helpers into its own
// Goja environment.
type netObject struct {
	ctx context.Context
	eng *core.Engine
}

func newNetObject(ctx context.Context, eng *core.Engine) *netObject {
	return &netObject{ctx: ctx, eng: eng}
}

func (n *netObject) AddFact(attrs map[string]interface{}) (int64, error) {
	return n.eng.AddFact(n.ctx, &core.Fact{Attrs: attrs})
}

func (n *netObject) RemoveFact(id int64) error {
	return n.eng.RemoveFact(n.ctx, id)
}

func (n *netObject) UpdateFact(id int64, changes map[string]interface{}) error {
	return n.eng.UpdateFact(n.ctx, id, changes)
}
