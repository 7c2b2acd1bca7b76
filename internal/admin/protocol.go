// ABOUTME: Tokenizer and tagged-variant decoder for admin wire commands
// ABOUTME: Frames decode into concrete command types dispatched by type switch

package admin

import (
	"fmt"
	"strconv"
	"strings"
)

// Error reply frames defined by the protocol.
const (
	replyNotAuthenticated = "NotAuthenticated"
	replyInvalidAuthToken = "InvalidAuthToken"
)

// command is the decoded form of one inbound admin frame.
type command interface {
	isCommand()
}

type authCmd struct {
	// token is empty when the auth frame itself was malformed; an empty
	// token never validates, which yields the mandated InvalidAuthToken.
	token string
}

type subscribeCmd struct {
	topics []string
}

type unsubscribeCmd struct {
	topics []string
}

type activeDocsCountCmd struct{}

type activeUsersCountCmd struct{}

type documentsCmd struct{}

type totalMemCmd struct{}

type memStatsCmd struct{}

type cpuStatsCmd struct{}

type killCmd struct {
	pid int
}

func (authCmd) isCommand()             {}
func (subscribeCmd) isCommand()        {}
func (unsubscribeCmd) isCommand()      {}
func (activeDocsCountCmd) isCommand()  {}
func (activeUsersCountCmd) isCommand() {}
func (documentsCmd) isCommand()        {}
func (totalMemCmd) isCommand()         {}
func (memStatsCmd) isCommand()         {}
func (cpuStatsCmd) isCommand()         {}
func (killCmd) isCommand()             {}

// parseCommand tokenizes one text frame and decodes it into a command.
// A frame whose token count does not match its leading keyword is malformed:
// it is reported as an error, never reinterpreted as a different command.
func parseCommand(frame string) (command, error) {
	tokens := strings.Fields(frame)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty frame")
	}

	switch tokens[0] {
	case "auth":
		if len(tokens) == 2 && strings.HasPrefix(tokens[1], "jwt=") {
			return authCmd{token: strings.TrimPrefix(tokens[1], "jwt=")}, nil
		}
		return authCmd{}, nil

	case "subscribe":
		topics, err := parseTopics(tokens)
		if err != nil {
			return nil, err
		}
		return subscribeCmd{topics: topics}, nil

	case "unsubscribe":
		topics, err := parseTopics(tokens)
		if err != nil {
			return nil, err
		}
		return unsubscribeCmd{topics: topics}, nil

	case "active_docs_count":
		if len(tokens) != 1 {
			return nil, fmt.Errorf("active_docs_count takes no arguments")
		}
		return activeDocsCountCmd{}, nil

	case "active_users_count":
		if len(tokens) != 1 {
			return nil, fmt.Errorf("active_users_count takes no arguments")
		}
		return activeUsersCountCmd{}, nil

	case "documents":
		if len(tokens) != 1 {
			return nil, fmt.Errorf("documents takes no arguments")
		}
		return documentsCmd{}, nil

	case "total_mem":
		if len(tokens) != 1 {
			return nil, fmt.Errorf("total_mem takes no arguments")
		}
		return totalMemCmd{}, nil

	case "mem_stats":
		if len(tokens) != 1 {
			return nil, fmt.Errorf("mem_stats takes no arguments")
		}
		return memStatsCmd{}, nil

	case "cpu_stats":
		if len(tokens) != 1 {
			return nil, fmt.Errorf("cpu_stats takes no arguments")
		}
		return cpuStatsCmd{}, nil

	case "kill":
		if len(tokens) != 2 {
			return nil, fmt.Errorf("kill takes exactly one pid argument")
		}
		pid, err := strconv.Atoi(tokens[1])
		if err != nil {
			return nil, fmt.Errorf("kill: bad pid %q", tokens[1])
		}
		return killCmd{pid: pid}, nil

	default:
		return nil, fmt.Errorf("unknown command %q", tokens[0])
	}
}

// parseTopics extracts topic names from a subscribe/unsubscribe frame.
// Topics may be space-separated, comma-separated, or both.
func parseTopics(tokens []string) ([]string, error) {
	if len(tokens) < 2 {
		return nil, fmt.Errorf("%s requires at least one topic", tokens[0])
	}

	var topics []string
	for _, tok := range tokens[1:] {
		for _, t := range strings.Split(tok, ",") {
			if t != "" {
				topics = append(topics, t)
			}
		}
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("%s requires at least one topic", tokens[0])
	}
	return topics, nil
}
