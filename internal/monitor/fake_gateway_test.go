package monitor

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// fakeGateway records every Discord call the reconciler makes
type fakeGateway struct {
	mu     sync.Mutex
	nextID int

	sent  []*sentCard
	texts []*sentText
	edits []*discordgo.MessageEdit

	editErr error
	sendErr error

	// block holds sends to a channel until the channel is closed
	block map[string]chan struct{}
}

type sentCard struct {
	channelID string
	messageID string
	msg       *discordgo.MessageSend
}

type sentText struct {
	channelID string
	content   string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{block: make(map[string]chan struct{})}
}

func (f *fakeGateway) wait(channelID string) {
	f.mu.Lock()
	ch := f.block[channelID]
	f.mu.Unlock()
	if ch != nil {
		<-ch
	}
}

func (f *fakeGateway) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.wait(channelID)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.nextID++
	f.texts = append(f.texts, &sentText{channelID: channelID, content: content})
	return &discordgo.Message{ID: fmt.Sprintf("text-%d", f.nextID), ChannelID: channelID, Content: content}, nil
}

func (f *fakeGateway) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.wait(channelID)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.nextID++
	id := fmt.Sprintf("card-%d", f.nextID)
	f.sent = append(f.sent, &sentCard{channelID: channelID, messageID: id, msg: data})
	return &discordgo.Message{ID: id, ChannelID: channelID}, nil
}

func (f *fakeGateway) ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.wait(m.Channel)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.edits = append(f.edits, m)
	if f.editErr != nil {
		return nil, f.editErr
	}
	return &discordgo.Message{ID: m.ID, ChannelID: m.Channel}, nil
}

func (f *fakeGateway) counts() (sent, texts, edits int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent), len(f.texts), len(f.edits)
}

func (f *fakeGateway) sentTo(channelID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, s := range f.sent {
		if s.channelID == channelID {
			n++
		}
	}
	for _, t := range f.texts {
		if t.channelID == channelID {
			n++
		}
	}
	return n
}

func unknownMessageError() error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusNotFound, Status: "404 Not Found"},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMessage, Message: "Unknown Message"},
	}
}

func serverError() error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusInternalServerError, Status: "500 Internal Server Error"},
	}
}

func fieldValue(embed *discordgo.MessageEmbed, name string) string {
	for _, f := range embed.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

func editEmbed(m *discordgo.MessageEdit) *discordgo.MessageEmbed {
	if m.Embeds == nil || len(*m.Embeds) == 0 {
		return nil
	}
	return (*m.Embeds)[0]
}
