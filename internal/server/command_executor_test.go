package server

import "testing"

func TestMockCommandExecutor(t *testing.T) {
	executor := &MockCommandExecutor{MockOutput: "ok"}
	out, err := executor.Execute("say ok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ok" {
		t.Fatalf("expected output ok, got %s", out)
	}
	if cmds := executor.Commands(); len(cmds) != 1 || cmds[0] != "say ok" {
		t.Fatalf("unexpected recorded commands %v", cmds)
	}
}

func TestMockCommandExecutorLongestPrefix(t *testing.T) {
	executor := &MockCommandExecutor{
		Handlers: map[string]func(string) (string, error){
			"whitelist":     func(string) (string, error) { return "generic", nil },
			"whitelist add": func(string) (string, error) { return "added", nil },
		},
	}

	out, _ := executor.Execute("whitelist add Steve")
	if out != "added" {
		t.Fatalf("expected longest prefix handler, got %s", out)
	}
	out, _ = executor.Execute("whitelist on")
	if out != "generic" {
		t.Fatalf("expected generic handler, got %s", out)
	}
}
