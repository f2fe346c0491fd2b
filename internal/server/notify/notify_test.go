package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogNotifier_Send(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(logging.NewJSONLogger(&buf, "info"))

	require.NoError(t, n.Send(context.Background(), "test@test.com", "2FA Code", "123456"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "message sent", rec["msg"])
	assert.Equal(t, "notify", rec["module"])
	assert.Equal(t, "test@test.com", rec["recipient"])
	assert.Equal(t, "2FA Code", rec["subject"])
	assert.Equal(t, "123456", rec["body"])
}
