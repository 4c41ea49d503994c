package provider

import (
	"context"
	"strings"
)

// Rule pairs keywords with a canned answer. A rule matches when every AllOf
// keyword is contained in the question and, if any of AnyOf, Prefix or Exact
// is set, at least one of them hits: AnyOf by containment, Prefix at the start
// of the question, Exact against the whole question. Keywords are lower case.
type Rule struct {
	Name   string
	AnyOf  []string
	AllOf  []string
	Prefix []string
	Exact  []string
	Answer string
}

func (r Rule) matches(q string) bool {
	for _, kw := range r.AllOf {
		if !strings.Contains(q, kw) {
			return false
		}
	}
	if len(r.AnyOf)+len(r.Prefix)+len(r.Exact) == 0 {
		return len(r.AllOf) > 0
	}
	for _, kw := range r.Exact {
		if q == kw {
			return true
		}
	}
	for _, kw := range r.Prefix {
		if strings.HasPrefix(q, kw) {
			return true
		}
	}
	for _, kw := range r.AnyOf {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// Rules are evaluated first match wins, so narrower topics come before broader
// ones ("rust" is last because questions about testing or errors in Rust
// should land on those topics).
var defaultRules = []Rule{
	{
		Name:   "greeting",
		AnyOf:  []string{"hello", "greetings", "привет"},
		Prefix: []string{"hi ", "hi!", "hi,"},
		Exact:  []string{"hi"},
		Answer: "Hello! I'm the demo assistant of this service, running in mock mode.\n\n" +
			"I can answer questions about:\n" +
			"- Go and Rust\n" +
			"- HTTP routing with chi\n" +
			"- Concurrency\n" +
			"- REST APIs and JSON\n" +
			"- Testing\n" +
			"- Error handling\n\n" +
			"Try asking about any of these topics. For full AI answers, configure the remote provider.",
	},
	{
		Name:  "router",
		AnyOf: []string{"go-chi", "chi router", "router", "routing", "middleware"},
		Answer: "chi is a lightweight, idiomatic router for building Go HTTP services. Key features:\n" +
			"- Fully compatible with net/http handlers\n" +
			"- URL parameters and route groups\n" +
			"- Composable middleware (request ids, timeouts, panic recovery, logging)\n" +
			"- No external dependencies\n" +
			"It is a good fit for REST APIs and small web services like this one.",
	},
	{
		Name:  "testing",
		AnyOf: []string{"test"},
		Answer: "Testing is built into the Go toolchain. Common kinds of tests:\n" +
			"- Unit tests (func TestXxx(t *testing.T)) for individual functions\n" +
			"- Table-driven tests to cover many cases with one loop\n" +
			"- HTTP handler tests with net/http/httptest\n" +
			"- Example functions that double as documentation\n" +
			"Libraries such as testify add assertions and mocks. Run everything with: go test ./...",
	},
	{
		Name:  "errors",
		AnyOf: []string{"error"},
		Answer: "Error handling in Go is explicit: functions return an error value next to their result.\n" +
			"- if err != nil checks keep failure paths visible\n" +
			"- fmt.Errorf with %w wraps errors with context\n" +
			"- errors.Is and errors.As inspect wrapped chains\n" +
			"- Typed errors carry machine-readable codes across layers\n" +
			"This makes failures part of the API instead of hidden control flow.",
	},
	{
		Name:  "json",
		AnyOf: []string{"json", "serializ", "marshal"},
		Answer: "JSON in Go is handled by encoding/json and compatible libraries. It lets you:\n" +
			"- Decode request bodies straight into structs\n" +
			"- Encode structs back to JSON responses\n" +
			"- Control field names and omission with struct tags\n" +
			"- Stream large documents with Decoder and Encoder\n" +
			"Example: `json:\"answer\"` maps a struct field to the \"answer\" key.",
	},
	{
		Name:  "concurrency",
		AnyOf: []string{"async", "concurren", "goroutine", "channel", "parallel"},
		Answer: "Concurrency in Go is built on goroutines and channels. Key concepts:\n" +
			"- go statement starts a lightweight goroutine\n" +
			"- Channels pass values between goroutines safely\n" +
			"- select waits on several channel operations at once\n" +
			"- context.Context carries deadlines and cancellation\n" +
			"It is especially useful for servers, network clients and I/O bound work.",
	},
	{
		Name:  "api",
		AnyOf: []string{"api", "endpoint"},
		Answer: "A REST API (Representational State Transfer) is an architectural style for web services. Main verbs:\n" +
			"- GET retrieves data\n" +
			"- POST creates resources or triggers actions\n" +
			"- PUT/PATCH update existing resources\n" +
			"- DELETE removes resources\n" +
			"This service exposes GET /health and POST /ask with JSON bodies.",
	},
	{
		Name:  "architecture",
		AllOf: []string{"how", "work"},
		Answer: "This service is a small demo of a Go web backend. Architecture:\n" +
			"- cmd/server accepts HTTP requests through a chi router\n" +
			"- The validation pipeline rejects empty questions\n" +
			"- A provider answers: the remote AI backend or this offline mock\n" +
			"- Configuration comes from config.toml plus ASK_* environment overrides\n\n" +
			"The provider is chosen once at startup; without a credential the mock (current mode) is used.",
	},
	{
		Name:  "golang",
		AnyOf: []string{"golang", "go language", "what is go?", "what is go "},
		Exact: []string{"what is go"},
		Answer: "Go is a statically typed, compiled programming language designed at Google and released in 2009. " +
			"It combines fast compilation, a garbage collector and first-class concurrency with goroutines and channels. " +
			"Go is widely used for network services, cloud infrastructure and command-line tools.",
	},
	{
		Name:  "rust",
		AnyOf: []string{"rust", "раст"},
		Answer: "Rust is a systems programming language focused on safety, speed, and concurrency. " +
			"It was developed by Mozilla Research and first released in 2010. " +
			"Rust guarantees memory safety without a garbage collector through its ownership and borrowing system. " +
			"This makes Rust a good fit for systems programming, web servers, embedded systems, and high-performance applications.",
	},
}

// DefaultAnswer is returned when no rule matches.
const DefaultAnswer = "This is a demo response from the mock service.\n\n" +
	"I can help with questions about:\n" +
	"- Go and Rust\n" +
	"- HTTP routing with chi\n" +
	"- Concurrency\n" +
	"- REST APIs\n" +
	"- Testing\n\n" +
	"Try asking: 'What is Rust?' or 'How does this service work?'\n\n" +
	"For real AI answers, set the OPENAI_API_KEY environment variable (or provider.token in config.toml) and restart the service."

// Mock answers from a static keyword table without any network access.
type Mock struct {
	rules []Rule
}

// NewMock returns a Mock using the built-in rule table.
func NewMock() *Mock {
	return NewMockWithRules(defaultRules)
}

// NewMockWithRules returns a Mock evaluating rules in the given order.
func NewMockWithRules(rules []Rule) *Mock {
	return &Mock{rules: cloneRules(rules)}
}

// Rules returns a copy of the rule table in evaluation order.
func (m *Mock) Rules() []Rule {
	return cloneRules(m.rules)
}

func (m *Mock) Name() string { return SourceMock }

// Ask never fails; questions that match no rule get DefaultAnswer.
func (m *Mock) Ask(_ context.Context, question string) (Answer, error) {
	return Answer{Text: m.lookup(question), Source: SourceMock}, nil
}

func (m *Mock) lookup(question string) string {
	q := strings.ToLower(strings.TrimSpace(question))
	for _, r := range m.rules {
		if r.matches(q) {
			return r.Answer
		}
	}
	return DefaultAnswer
}

func cloneRules(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = Rule{
			Name:   r.Name,
			AnyOf:  append([]string(nil), r.AnyOf...),
			AllOf:  append([]string(nil), r.AllOf...),
			Prefix: append([]string(nil), r.Prefix...),
			Exact:  append([]string(nil), r.Exact...),
			Answer: r.Answer,
		}
	}
	return out
}
