package journal

import (
	"context"
	"sync"
	"testing"

	"github.com/LeJamon/goAssetLock/internal/core/escrow"
	"github.com/LeJamon/goAssetLock/internal/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice   = types.AccountID{0x01}
	bob     = types.AccountID{0x02}
	gateway = types.AccountID{0x03}
	usd     = types.Token{Currency: "USD", Issuer: gateway}
)

func openMemory(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func sampleEvents() []escrow.Event {
	return []escrow.Event{
		{Seq: 1, Kind: escrow.EventDeposited, LedgerTime: 100, Creator: alice, Nonce: 1,
			Depositor: alice, Beneficiary: bob, Token: usd},
		{Seq: 2, Kind: escrow.EventSwapped, LedgerTime: 110, Creator: alice, Nonce: 1,
			Caller: bob, Recipient: alice, Token: usd, Amount: 90},
		{Seq: 3, Kind: escrow.EventUnlockerWithdrew, LedgerTime: 120, Creator: alice, Nonce: 1,
			Beneficiary: bob, Amount: 90},
		{Seq: 4, Kind: escrow.EventDeposited, LedgerTime: 130, Creator: bob, Nonce: 1,
			Depositor: bob, Beneficiary: alice, Token: usd},
	}
}

func TestJournal_AppendList(t *testing.T) {
	j := openMemory(t)
	ctx := context.Background()

	for _, ev := range sampleEvents() {
		require.NoError(t, j.Append(ctx, ev))
	}

	all, err := j.List(ctx, escrow.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, sampleEvents(), all)

	last, err := j.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), last)
}

func TestJournal_Filters(t *testing.T) {
	j := openMemory(t)
	ctx := context.Background()
	for _, ev := range sampleEvents() {
		require.NoError(t, j.Publish(ctx, ev))
	}

	tests := []struct {
		name   string
		filter escrow.Filter
		seqs   []uint64
	}{
		{"kind", escrow.Filter{Kinds: []escrow.EventKind{escrow.EventDeposited}}, []uint64{1, 4}},
		{"kinds", escrow.Filter{Kinds: []escrow.EventKind{escrow.EventSwapped, escrow.EventUnlockerWithdrew}}, []uint64{2, 3}},
		{"sender", escrow.Filter{Sender: bob}, []uint64{2, 4}},
		{"receiver", escrow.Filter{Receiver: bob}, []uint64{1, 3}},
		{"creator", escrow.Filter{Creator: bob}, []uint64{4}},
		{"token", escrow.Filter{Token: usd}, []uint64{1, 2, 4}},
		{"after", escrow.Filter{AfterSeq: 2}, []uint64{3, 4}},
		{"limit", escrow.Filter{Limit: 2}, []uint64{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := j.List(ctx, tt.filter)
			require.NoError(t, err)
			seqs := make([]uint64, 0, len(got))
			for _, ev := range got {
				seqs = append(seqs, ev.Seq)
				assert.True(t, tt.filter.Match(ev))
			}
			assert.Equal(t, tt.seqs, seqs)
		})
	}
}

func TestJournal_DuplicateSeqIgnored(t *testing.T) {
	j := openMemory(t)
	ctx := context.Background()
	ev := sampleEvents()[0]

	require.NoError(t, j.Append(ctx, ev))
	require.NoError(t, j.Append(ctx, ev))

	all, err := j.List(ctx, escrow.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestJournal_Empty(t *testing.T) {
	j := openMemory(t)
	last, err := j.LastSeq(context.Background())
	require.NoError(t, err)
	assert.Zero(t, last)
}

func TestJournal_Closed(t *testing.T) {
	j, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, j.Close())
	require.NoError(t, j.Close())

	assert.ErrorIs(t, j.Append(context.Background(), sampleEvents()[0]), ErrClosed)
	_, err = j.List(context.Background(), escrow.Filter{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestJournal_CloseDuringAppend(t *testing.T) {
	j, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(seq uint64) {
			defer wg.Done()
			ev := sampleEvents()[0]
			ev.Seq = seq
			errs <- j.Append(context.Background(), ev)
		}(uint64(i))
	}
	require.NoError(t, j.Close())
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrClosed)
		}
	}
}

func TestJournal_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql"})
	assert.Error(t, err)
}

func TestJournal_Rebind(t *testing.T) {
	pg := &Journal{config: Config{Driver: DriverPostgres}}
	assert.Equal(t, "a = $1 AND b IN ($2, $3)", pg.rebind("a = ? AND b IN (?, ?)"))

	lite := &Journal{config: Config{Driver: DriverSQLite}}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestJournal_FileReopen(t *testing.T) {
	dsn := t.TempDir() + "/events.db"
	ctx := context.Background()

	j, err := Open(ctx, Config{Driver: DriverSQLite, DSN: dsn})
	require.NoError(t, err)
	for _, ev := range sampleEvents()[:2] {
		require.NoError(t, j.Append(ctx, ev))
	}
	require.NoError(t, j.Close())

	j, err = Open(ctx, Config{Driver: DriverSQLite, DSN: dsn})
	require.NoError(t, err)
	defer j.Close()

	last, err := j.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), last)
}
