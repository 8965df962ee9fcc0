package chat

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    InboundEvent
		wantErr error
	}{
		{
			name: "join",
			data: `{"type":"join","handle":"alice"}`,
			want: Join{Handle: "alice"},
		},
		{
			name: "join without handle",
			data: `{"type":"join"}`,
			want: Join{},
		},
		{
			name: "broadcast ignores claimed sender",
			data: `{"type":"broadcast","text":"hi","from":"mallory"}`,
			want: Broadcast{Text: "hi"},
		},
		{
			name: "direct",
			data: `{"type":"direct","to":"bob","text":"psst"}`,
			want: Direct{To: "bob", Text: "psst"},
		},
		{
			name:    "unknown type",
			data:    `{"type":"shout","text":"x"}`,
			wantErr: ErrUnknownEvent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeInbound([]byte(tt.data))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeInbound_Malformed(t *testing.T) {
	_, err := DecodeInbound([]byte("not json"))
	assert.Error(t, err)
}
