package goja

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/slott56/go-rete/core"
)

func TestActionsSimple(t *testing.T) {
	code := `return {likes:"chips"};`

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	i := NewInterpreter()
	i.Testing = true
	compiled, err := i.Compile(ctx, code)
	if err != nil {
		t.Fatal(err)
	}

	v, err := i.Exec(ctx, nil, code, compiled)
	if err != nil {
		t.Fatal(err)
	}
	m, is := v.(map[string]interface{})
	if !is {
		t.Fatalf("%#v (%T) isn't a map", v, v)
	}
	if m["likes"] != "chips" {
		t.Fatalf("didn't want %#v", m["likes"])
	}
}

func TestActionsBindings(t *testing.T) {
	code := `var bs = _.bindings; bs["?want"] = "tacos"; return bs;`

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	i := NewInterpreter()
	bs := core.NewBindings().Extend("?have", "queso")
	compiled, err := i.Compile(ctx, code)
	if err != nil {
		t.Fatal(err)
	}

	v, err := i.Exec(ctx, bs, code, compiled)
	if err != nil {
		t.Fatal(err)
	}
	m, is := v.(map[string]interface{})
	if !is {
		t.Fatalf("%#v (%T) isn't a map", v, v)
	}
	if m["?want"] != "tacos" {
		t.Fatalf("didn't want %#v", m["?want"])
	}
	if m["?have"] != "queso" {
		t.Fatalf("lost existing binding: %#v", m)
	}
}

func TestActionsTimeout(t *testing.T) {
	code := `for (;;) { sleep(10); } null;`

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	i := NewInterpreter()
	i.Testing = true
	compiled, err := i.Compile(ctx, code)
	if err != nil {
		t.Fatal(err)
	}

	if _, err = i.Exec(ctx, nil, code, compiled); err == nil {
		t.Fatal("didn't timeout")
	} else if err.Error() != InterruptedMessage {
		t.Fatalf("surprised by %q", err.Error())
	}
}

func TestActionsError(t *testing.T) {
	code := `likes + tacos; null;`

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	i := NewInterpreter()
	compiled, err := i.Compile(ctx, code)
	if err != nil {
		t.Fatal(err)
	}

	if _, err = i.Exec(ctx, nil, code, compiled); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestActionsCronNextGood(t *testing.T) {
	cronExpr := "* 0 * * *"
	code := fmt.Sprintf(`return {next: _.cronNext("%s")};`, cronExpr)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	i := NewInterpreter()
	compiled, err := i.Compile(ctx, code)
	if err != nil {
		t.Fatal(err)
	}

	v, err := i.Exec(ctx, nil, code, compiled)
	if err != nil {
		t.Fatal(err)
	}
	m, is := v.(map[string]interface{})
	if !is {
		t.Fatalf("%#v (%T) isn't a map", v, v)
	}
	if _, have := m["next"]; !have {
		t.Fatalf("no next in %#v", m)
	}
}

func TestActionsCronNextBad(t *testing.T) {
	cronExpr := "bad"
	code := fmt.Sprintf(`return {next: _.cronNext("%s")};`, cronExpr)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	i := NewInterpreter()
	compiled, err := i.Compile(ctx, code)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := i.Exec(ctx, nil, code, compiled); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestActionsMatchTest(t *testing.T) {
	as := core.ActionSource{
		Interpreter: "goja",
		Source:      `return _.bindings["?value"] > 2;`,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	code, err := as.Compile(ctx, core.DefaultInterpreters)
	if err != nil {
		t.Fatal(err)
	}

	ok, err := code.EvalTest(ctx, core.NewBindings().Extend("?value", 3.0))
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected the test to pass")
	}

	ok, err = code.EvalTest(ctx, core.NewBindings().Extend("?value", 1.0))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected the test to fail")
	}
}

func TestActionsRequireSimple(t *testing.T) {
	code := map[string]interface{}{
		"requires": []interface{}{"foo", "bar"},
		"code":     `return {likes: foo()}`,
	}

	i := NewInterpreter()
	i.Testing = true

	i.LibraryProvider = MakeMapLibraryProvider(map[string]string{
		"foo": `
function foo() {
  var acc = [];
  for (var i = 0; i < 10; i++) {
      acc.push(i);
  }
  return "chips";
}
`,
		"bar": `
function bar() { return "queso"}
`,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	compiled, err := i.Compile(ctx, code)
	if err != nil {
		t.Fatal(err)
	}

	v, err := i.Exec(ctx, nil, code, compiled)
	if err != nil {
		t.Fatal(err)
	}
	m, is := v.(map[string]interface{})
	if !is {
		t.Fatalf("%#v (%T) isn't a map", v, v)
	}
	if m["likes"] != "chips" {
		t.Fatalf("didn't want %#v", m["likes"])
	}
}

func TestActionsRequireHTTP(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `function foo() { return "queso"; }`)
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	code := map[string]interface{}{
		"requires": []interface{}{server.URL},
		"code":     `return {wants: foo()}`,
	}

	i := NewInterpreter()
	i.Testing = true

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	compiled, err := i.Compile(ctx, code)
	if err != nil {
		t.Fatal(err)
	}

	v, err := i.Exec(ctx, nil, code, compiled)
	if err != nil {
		t.Fatal(err)
	}
	m, is := v.(map[string]interface{})
	if !is {
		t.Fatalf("%#v (%T) isn't a map", v, v)
	}
	if m["wants"] != "queso" {
		t.Fatalf("wanted something wrong: %#v", m["wants"])
	}
}

func TestActionsNetCallback(t *testing.T) {
	eng := core.NewEngine(core.EngineOptions{Interpreters: core.DefaultInterpreters})
	code := `
var id = _.net.AddFact({"color": "red"});
return {factId: id};
`
	as := core.ActionSource{Interpreter: "goja", Source: code}

	production := &core.Production{
		Name:   "make-a-fact",
		LHS:    core.NewPattern(core.Field("trigger", "?t")),
		Action: as,
	}
	ctx := context.Background()
	if _, err := eng.AddProduction(ctx, production); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.AddFact(ctx, core.NewFact().WithAttr("trigger", true)); err != nil {
		t.Fatal(err)
	}

	matches := eng.Matches()
	if len(matches) != 1 {
		t.Fatalf("expected one match, got %d", len(matches))
	}

	if _, err := eng.Fire(ctx, matches[0]); err != nil {
		t.Fatal(err)
	}

	if eng.Productions() == nil {
		t.Fatal("nil production set")
	}
}
