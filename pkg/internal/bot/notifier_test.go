package bot

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/filterbot/pkg/configs"
	"github.com/yeisme/filterbot/pkg/internal/model"
	"github.com/yeisme/filterbot/pkg/internal/service"
	"github.com/yeisme/filterbot/pkg/internal/storage/mq"
	"github.com/yeisme/filterbot/pkg/queue"
)

const logChannel int64 = -100777

func newMemoryMQ(t *testing.T) *mq.Client {
	t.Helper()

	client, err := mq.New(context.Background(), configs.MQConfig{Type: configs.MQTypeMemory})
	require.NoError(t, err)

	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestNotifierPostsEvents(t *testing.T) {
	client := newMemoryMQ(t)
	api := newFakeAPI()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := NewNotifier(client, NewResponder(api), logChannel)
	require.NoError(t, n.Start(ctx))

	require.NoError(t, queue.PublishUserJoined(ctx, client, queue.UserJoinedPayload{UserID: 42, Username: "tony", FirstName: "Tony"}))
	require.NoError(t, queue.PublishFileIndexed(ctx, client, queue.FileIndexedPayload{
		FileID: "f", FileName: "Up.mp4", FileType: string(model.FileTypeVideo), FileSize: 1024,
	}))

	require.Eventually(t, func() bool { return len(api.messages()) == 2 }, 2*time.Second, 10*time.Millisecond)

	texts := make([]string, 0, 2)
	for _, m := range api.messages() {
		assert.Equal(t, logChannel, m.ChatID)
		texts = append(texts, m.Text)
	}

	assert.ElementsMatch(t, []string{
		service.NewUserLogText(42, "tony", "Tony"),
		service.FileIndexedLogText("Up.mp4", model.FileTypeVideo, 1024),
	}, texts)

	cancel()
	n.Wait()
}

func TestNotifierDisabledWithoutChannel(t *testing.T) {
	client := newMemoryMQ(t)
	api := newFakeAPI()

	n := NewNotifier(client, NewResponder(api), 0)
	require.NoError(t, n.Start(context.Background()))

	require.NoError(t, queue.PublishUserJoined(context.Background(), client, queue.UserJoinedPayload{UserID: 1}))

	n.Wait()
	assert.Empty(t, api.messages())
}

func TestRenderEventStatsReport(t *testing.T) {
	msg, err := queue.NewWatermillMessage(queue.TopicStatsReported, queue.StatsReportedPayload{
		Users: 3, Files: 1200, Chats: 1, UptimeSeconds: int64((26 * time.Hour).Seconds()),
	})
	require.NoError(t, err)

	text, err := renderEvent(queue.TopicStatsReported, msg)
	require.NoError(t, err)
	assert.Equal(t, service.StatsReportText(model.Totals{Users: 3, Files: 1200, Chats: 1}, 26*time.Hour), text)
}

func TestRenderEventRejectsGarbage(t *testing.T) {
	_, err := renderEvent(queue.TopicUserJoined, message.NewMessage("x", []byte("not json")))
	require.Error(t, err)

	_, err = renderEvent("fb.unknown", message.NewMessage("y", []byte("{}")))
	require.Error(t, err)
}
