package stream

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/mtlprog/finagent/internal/metrics"
)

type nopConn struct{ closed bool }

func (c *nopConn) ReadJSON(any) error  { return nil }
func (c *nopConn) WriteJSON(any) error { return nil }
func (c *nopConn) Close() error        { c.closed = true; return nil }

func TestConnectionRegistry(t *testing.T) {
	r := NewConnectionRegistry()
	before := testutil.ToFloat64(metrics.StreamConnections)

	a, b := &nopConn{}, &nopConn{}
	r.Register("b", b)
	r.Register("a", a)
	r.Register("a", a)

	assert.Equal(t, 2, r.Count())
	assert.Equal(t, []string{"a", "b"}, r.IDs())
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.StreamConnections))

	r.Deregister("a")
	r.Deregister("missing")
	assert.Equal(t, []string{"b"}, r.IDs())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.StreamConnections))

	r.CloseAll()
	assert.True(t, b.closed)
	assert.False(t, a.closed)

	r.Deregister("b")
	assert.Equal(t, before, testutil.ToFloat64(metrics.StreamConnections))
}
