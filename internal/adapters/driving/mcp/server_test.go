package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil answer service returns error", func(t *testing.T) {
		ports := &Ports{}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingAnswerService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		ports := &Ports{
			Answer: &mockAnswerService{},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.NotNil(t, server)
		assert.NotNil(t, server.Handler())
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil answer service returns error", func(t *testing.T) {
		ports := &Ports{}
		err := ports.Validate()
		assert.ErrorIs(t, err, ErrMissingAnswerService)
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			Answer:      &mockAnswerService{},
			Documents:   &mockDocumentService{},
			Maintenance: &mockMaintenance{},
		}
		err := ports.Validate()
		assert.NoError(t, err)
	})
}
