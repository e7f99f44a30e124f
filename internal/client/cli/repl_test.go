package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/bidmarket/internal/client/services"
	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	role     string

	calls []string
}

func (f *fakeExec) record(s string) error {
	f.calls = append(f.calls, s)
	return nil
}

func (f *fakeExec) links() services.Links {
	l := services.Links{BuyerDashboard: true, SellerDashboard: true, Login: true, Register: true}
	if f.loggedIn {
		l = services.Links{
			BuyerDashboard:  f.role == "BUYER",
			SellerDashboard: f.role == "SELLER",
			Profile:         true,
			Logout:          true,
		}
	}
	return l
}

func (f *fakeExec) Login(context.Context) error {
	f.loggedIn, f.role = true, "BUYER"
	return f.record("login")
}
func (f *fakeExec) Register(context.Context) error { return f.record("register") }
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}
func (f *fakeExec) Nav(context.Context) error      { return f.record("nav") }
func (f *fakeExec) Projects(context.Context) error { return f.record("projects") }
func (f *fakeExec) Project(_ context.Context, id string) error {
	return f.record("project " + id)
}
func (f *fakeExec) Create(context.Context) error { return f.record("create") }
func (f *fakeExec) Bid(_ context.Context, p string) error {
	return f.record("bid " + p)
}
func (f *fakeExec) Select(_ context.Context, p, b string) error {
	return f.record("select " + p + " " + b)
}
func (f *fakeExec) MyBids(context.Context) error { return f.record("mybids") }
func (f *fakeExec) Complete(_ context.Context, b string) error {
	return f.record("complete " + b)
}
func (f *fakeExec) Attach(_ context.Context, b, path string) error {
	return f.record("attach " + b + " " + path)
}
func (f *fakeExec) Submit(_ context.Context, b string) error {
	return f.record("submit " + b)
}
func (f *fakeExec) Cancel(_ context.Context, b string) error {
	return f.record("cancel " + b)
}
func (f *fakeExec) Profile(context.Context) error { return f.record("profile") }

// capture swaps printlnFn for the duration of the test.
func capture(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_DispatchesWithArguments(t *testing.T) {
	capture(t)

	input := strings.NewReader(strings.Join([]string{
		"login",
		"projects",
		"project p1",
		"",
		"bid p1",
		"select p1 b2",
		"mybids",
		"complete b2",
		"attach b2 /tmp/my report.pdf",
		"submit b2",
		"cancel b2",
		"create",
		"profile",
		"nav",
		"logout",
		"exit",
		"login",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "(guest)" }, bufio.NewScanner(input))

	assert.Equal(t, []string{
		"login",
		"projects",
		"project p1",
		"bid p1",
		"select p1 b2",
		"mybids",
		"complete b2",
		"attach b2 /tmp/my report.pdf",
		"submit b2",
		"cancel b2",
		"create",
		"profile",
		"nav",
		"logout",
	}, exec.calls)
}

func TestRunREPL_UsageAndQuit(t *testing.T) {
	lines := capture(t)

	input := strings.NewReader("select p1\nbid\nfoobar\nquit\nprojects\n")
	exec := &fakeExec{loggedIn: true, role: "BUYER"}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewScanner(input))

	assert.Empty(t, exec.calls)
	assert.Contains(t, *lines, "Usage: select <projectId> <bidId>")
	assert.Contains(t, *lines, "Usage: bid <projectId>")
	assert.Contains(t, *lines, "Unknown command: foobar")
	assert.Contains(t, *lines, "Bye!")
	assert.Contains(t, *lines, "bm s>")
}

func TestRunREPL_HelpFollowsSession(t *testing.T) {
	lines := capture(t)

	input := strings.NewReader("help\nlogin\nhelp\n")
	runREPL(context.Background(), &fakeExec{}, func() string { return "" }, bufio.NewScanner(input))

	var helps []string
	for _, l := range *lines {
		if strings.HasPrefix(l, "Available commands:") {
			helps = append(helps, l)
		}
	}
	if assert.Len(t, helps, 2) {
		assert.Contains(t, helps[0], "register")
		assert.Contains(t, helps[0], "mybids")
		assert.NotContains(t, helps[0], "logout")

		assert.Contains(t, helps[1], "logout")
		assert.Contains(t, helps[1], "create")
		assert.NotContains(t, helps[1], "mybids")
		assert.NotContains(t, helps[1], "register")
	}
}

func TestHelpText(t *testing.T) {
	seller := helpText(services.Links{SellerDashboard: true, Profile: true, Logout: true})
	assert.Contains(t, seller, "bid <projectId>")
	assert.Contains(t, seller, "profile")
	assert.NotContains(t, seller, "select")
	assert.True(t, strings.HasSuffix(seller, "exit"))
}
