package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
)

const (
	defaultStatePath = "chatctl-state.json"
	defaultBaseURL   = "http://localhost:5000"
)

type stateFile struct {
	BaseURL string `json:"base_url"`
	Token   string `json:"token"`
	UserID  string `json:"user_id"`
}

func RunCLI(prog string, args []string, stderr io.Writer) error {
	if len(args) < 1 {
		return UsageError{Program: prog}
	}
	cmd := args[0]
	rest := args[1:]
	var err error
	switch cmd {
	case "signup":
		err = runSignup(rest)
	case "login":
		err = runLogin(rest)
	case "users":
		err = runUsers(rest)
	case "send":
		err = runSend(rest)
	case "thread":
		err = runThread(rest)
	case "listen":
		err = runListen(rest)
	default:
		return UsageError{Program: prog}
	}
	if err != nil {
		if stderr == nil {
			stderr = os.Stderr
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
	}
	return err
}

type UsageError struct {
	Program string
}

func (u UsageError) Error() string {
	if u.Program == "" {
		u.Program = "chatctl"
	}
	return fmt.Sprintf("Usage: %s <command> [options]", u.Program)
}

func (UsageError) UsageLines() []string {
	return []string{
		"Commands:",
		"  signup    Create an account and store the token",
		"  login     Authenticate and store the token",
		"  users     List users and unseen message counts",
		"  thread    Print the conversation with a user",
		"  send      Send a direct message",
		"  listen    Stream presence and message events",
	}
}

func runSignup(args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	statePath := fs.String("state", getenv("CHATCTL_STATE_PATH", defaultStatePath), "state file path")
	baseURL := fs.String("url", getenv("CHATCTL_URL", defaultBaseURL), "server base URL")
	fullName := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	bio := fs.String("bio", "", "profile bio")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c := New(*baseURL, "")
	user, err := c.Signup(context.Background(), *fullName, *email, *password, *bio)
	if err != nil {
		return err
	}
	fmt.Printf("account created: %s (%s)\n", user.FullName, user.ID)
	return saveState(*statePath, stateFile{BaseURL: *baseURL, Token: c.Token(), UserID: user.ID})
}

func runLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	statePath := fs.String("state", getenv("CHATCTL_STATE_PATH", defaultStatePath), "state file path")
	baseURL := fs.String("url", getenv("CHATCTL_URL", defaultBaseURL), "server base URL")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c := New(*baseURL, "")
	user, err := c.Login(context.Background(), *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s (%s)\n", user.FullName, user.ID)
	return saveState(*statePath, stateFile{BaseURL: *baseURL, Token: c.Token(), UserID: user.ID})
}

func runUsers(args []string) error {
	c, _, err := clientFromState(args, "users")
	if err != nil {
		return err
	}
	users, unseen, err := c.Users(context.Background())
	if err != nil {
		return err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].FullName < users[j].FullName })
	for _, u := range users {
		line := fmt.Sprintf("%s  %s", u.ID, u.FullName)
		if n := unseen[u.ID]; n > 0 {
			line += fmt.Sprintf("  (%d unseen)", n)
		}
		fmt.Println(line)
	}
	return nil
}

func runThread(args []string) error {
	fs := flag.NewFlagSet("thread", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	statePath := fs.String("state", getenv("CHATCTL_STATE_PATH", defaultStatePath), "state file path")
	otherID := fs.String("with", "", "other user id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *otherID == "" {
		return errors.New("missing -with user id")
	}
	state, err := loadState(*statePath)
	if err != nil {
		return err
	}
	c := New(state.BaseURL, state.Token)
	msgs, err := c.Thread(context.Background(), *otherID)
	if err != nil {
		return err
	}
	for _, m := range msgs {
		who := "them"
		if m.SenderID == state.UserID {
			who = "me"
		}
		fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Local().Format("15:04:05"), who, m.Text)
	}
	return nil
}

func runSend(args []string) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	statePath := fs.String("state", getenv("CHATCTL_STATE_PATH", defaultStatePath), "state file path")
	toID := fs.String("to", "", "recipient user id")
	text := fs.String("text", "", "message text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *toID == "" {
		return errors.New("missing -to user id")
	}
	state, err := loadState(*statePath)
	if err != nil {
		return err
	}
	c := New(state.BaseURL, state.Token)
	msg, err := c.Send(context.Background(), *toID, *text, "")
	if err != nil {
		return err
	}
	fmt.Printf("sent %s\n", msg.ID)
	return nil
}

func runListen(args []string) error {
	c, state, err := clientFromState(args, "listen")
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events, err := c.Listen(ctx)
	if err != nil {
		return err
	}
	fmt.Println("listening; Ctrl-C to stop")
	for ev := range events {
		switch ev.Name {
		case "getOnlineUsers":
			fmt.Printf("online: %v\n", ev.OnlineUsers)
		case "newMessage":
			if ev.Message.SenderID != state.UserID {
				fmt.Printf("[%s] %s: %s\n", ev.Message.CreatedAt.Local().Format("15:04:05"), ev.Message.SenderID, ev.Message.Text)
			}
		}
	}
	return nil
}

func clientFromState(args []string, name string) (*Client, stateFile, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	statePath := fs.String("state", getenv("CHATCTL_STATE_PATH", defaultStatePath), "state file path")
	if err := fs.Parse(args); err != nil {
		return nil, stateFile{}, err
	}
	state, err := loadState(*statePath)
	if err != nil {
		return nil, stateFile{}, err
	}
	return New(state.BaseURL, state.Token), state, nil
}

func loadState(path string) (stateFile, error) {
	var state stateFile
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return state, fmt.Errorf("no state at %s; run login first", path)
		}
		return state, err
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return state, err
	}
	return state, nil
}

func saveState(path string, state stateFile) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
