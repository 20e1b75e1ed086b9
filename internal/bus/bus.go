// Package bus carries the messages an adapter emits for a test run.
package bus

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Variable keys and values of test-run config messages.
const (
	VarMessageType = "message-type"
	VarOutput      = "output"
	VarTags        = "tags"
	VarKey         = "key"

	MessageTypeTestRunConfig = "test-run-config"
	OutputKey                = "key"

	// Sentinel is the payload of the last message of the before-test phase.
	Sentinel = "Go!"
)

// Message is one record on the bus.
type Message struct {
	PluginName string
	Message    string
	Variables  map[string]string
}

// IsSentinel reports whether m is the end-of-setup marker.
func (m Message) IsSentinel() bool {
	return len(m.Variables) == 0 && m.Message == Sentinel
}

// Key returns the test-run config key carried by m, if any.
func (m Message) Key() (string, bool) {
	if m.Variables[VarMessageType] != MessageTypeTestRunConfig {
		return "", false
	}
	key, ok := m.Variables[VarKey]
	return key, ok
}

func (m Message) String() string {
	if len(m.Variables) == 0 {
		return fmt.Sprintf("Message{plugin=%s, message=%q}", m.PluginName, m.Message)
	}
	keys := make([]string, 0, len(m.Variables))
	for k := range m.Variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+m.Variables[k])
	}
	return fmt.Sprintf("Message{plugin=%s, message=%q, variables={%s}}", m.PluginName, m.Message, strings.Join(pairs, ", "))
}

// NewTestRunConfig builds the record publishing value under key.
func NewTestRunConfig(pluginName, key, value, tags string) Message {
	return Message{
		PluginName: pluginName,
		Message:    value,
		Variables: map[string]string{
			VarMessageType: MessageTypeTestRunConfig,
			VarOutput:      OutputKey,
			VarTags:        tags,
			VarKey:         key,
		},
	}
}

// NewSentinel builds the "Go!" message.
func NewSentinel(pluginName string) Message {
	return Message{PluginName: pluginName, Message: Sentinel}
}

// Receiver is invoked for every message sent on a bus.
type Receiver func(Message)

// Bus is the channel an adapter publishes on.
type Bus interface {
	Send(msg Message)
	AddReceiver(r Receiver)
}

// SimpleBus delivers synchronously, in send order, to all receivers and
// keeps a history of sent messages.
type SimpleBus struct {
	mu        sync.RWMutex
	receivers []Receiver
	history   []Message
}

// NewSimpleBus creates an empty bus.
func NewSimpleBus() *SimpleBus {
	return &SimpleBus{}
}

// Send records msg and hands it to every receiver.
func (b *SimpleBus) Send(msg Message) {
	b.mu.Lock()
	b.history = append(b.history, msg)
	receivers := make([]Receiver, len(b.receivers))
	copy(receivers, b.receivers)
	b.mu.Unlock()

	// Receivers run without the lock so they may send themselves.
	for _, r := range receivers {
		r(msg)
	}
}

// AddReceiver registers r for all subsequent messages.
func (b *SimpleBus) AddReceiver(r Receiver) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.receivers = append(b.receivers, r)
}

// History returns a copy of all messages sent so far.
func (b *SimpleBus) History() []Message {
	b.mu.RLock()
	defer b.mu.RUnlock()

	history := make([]Message, len(b.history))
	copy(history, b.history)
	return history
}
