package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
)

func TestReadCachesValue(t *testing.T) {
	c := New()
	calls := 0
	fetch := func(ctx context.Context) (interface{}, error) {
		calls++
		return "v1", nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.Read(context.Background(), TagConversations, fetch)
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if v != "v1" {
			t.Fatalf("read %d: got %v, want v1", i, v)
		}
	}
	if calls != 1 {
		t.Fatalf("fetch ran %d times, want 1", calls)
	}
}

func TestReadDoesNotCacheError(t *testing.T) {
	c := New()
	calls := 0
	boom := errors.New("boom")
	fetch := func(ctx context.Context) (interface{}, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return "ok", nil
	}

	if _, err := c.Read(context.Background(), TagChatUsers, fetch); !errors.Is(err, boom) {
		t.Fatalf("first read: got %v, want boom", err)
	}
	v, err := c.Read(context.Background(), TagChatUsers, fetch)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if v != "ok" {
		t.Fatalf("second read: got %v", v)
	}
}

func TestConcurrentReadsShareOneFetch(t *testing.T) {
	c := New()
	var calls int32
	gate := make(chan struct{})
	fetch := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		<-gate
		return "shared", nil
	}

	const readers = 8
	var wg sync.WaitGroup
	results := make([]interface{}, readers)
	started := make(chan struct{}, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started <- struct{}{}
			v, err := c.Read(context.Background(), TagConversations, fetch)
			if err != nil {
				t.Errorf("reader %d: %v", i, err)
			}
			results[i] = v
		}(i)
	}
	for i := 0; i < readers; i++ {
		<-started
	}
	close(gate)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("fetch ran %d times, want 1", got)
	}
	for i, v := range results {
		if v != "shared" {
			t.Fatalf("reader %d got %v", i, v)
		}
	}
}

func TestInvalidateDropsUnsubscribedEntry(t *testing.T) {
	c := New()
	calls := 0
	fetch := func(ctx context.Context) (interface{}, error) {
		calls++
		return calls, nil
	}

	c.Read(context.Background(), TagChatRooms, fetch)
	c.Invalidate(TagChatRooms)
	v, err := c.Read(context.Background(), TagChatRooms, fetch)
	if err != nil {
		t.Fatal(err)
	}
	if v != 2 {
		t.Fatalf("got %v after invalidation, want refetched value 2", v)
	}
}

func TestInvalidateAbsentTagIsNoop(t *testing.T) {
	c := New()
	c.Invalidate(TagBlockedUsers)
	c.Invalidate(TagBlockedUsers)
}

func TestInvalidateNotifiesSubscriber(t *testing.T) {
	c := New()
	var fired []Tag
	sub := c.Subscribe(TagConversations, func(tag Tag) {
		fired = append(fired, tag)
	})
	defer sub.Close()

	c.Invalidate(TagConversations)
	c.Invalidate(TagChatRooms)

	if len(fired) != 1 || fired[0] != TagConversations {
		t.Fatalf("fired = %v, want [Conversations]", fired)
	}
}

func TestClosedSubscriptionNeverFires(t *testing.T) {
	c := New()
	fired := 0
	sub := c.Subscribe(TagConversations, func(Tag) { fired++ })
	sub.Close()
	sub.Close() // idempotent

	c.Invalidate(TagConversations)
	if fired != 0 {
		t.Fatalf("closed subscription fired %d times", fired)
	}
}

func TestInvalidationDuringFetchWins(t *testing.T) {
	c := New()
	fetchStarted := make(chan struct{})
	fetchRelease := make(chan struct{})
	var calls int32
	fetch := func(ctx context.Context) (interface{}, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			close(fetchStarted)
			<-fetchRelease
			return "stale", nil
		}
		return "fresh", nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Read(context.Background(), TagConversations, fetch)
	}()

	<-fetchStarted
	c.Invalidate(TagConversations)
	close(fetchRelease)
	<-done

	v, err := c.Read(context.Background(), TagConversations, fetch)
	if err != nil {
		t.Fatal(err)
	}
	if v != "fresh" {
		t.Fatalf("got %v, want fresh: a fetch that predates the invalidation must not stay cached", v)
	}
}

func TestReadHonorsContextWhileWaiting(t *testing.T) {
	c := New()
	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})
	fetch := func(ctx context.Context) (interface{}, error) {
		close(started)
		<-release
		return "late", nil
	}

	go c.Read(context.Background(), TagChatUsers, fetch)
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Read(ctx, TagChatUsers, func(context.Context) (interface{}, error) {
		t.Fatal("second fetch must not run")
		return nil, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestRegistryIsolatesUsers(t *testing.T) {
	r := NewRegistry()
	alice := uuid.New()
	bob := uuid.New()

	aliceCalls := 0
	fetchAlice := func(ctx context.Context) (interface{}, error) {
		aliceCalls++
		return "alice", nil
	}
	bobCalls := 0
	fetchBob := func(ctx context.Context) (interface{}, error) {
		bobCalls++
		return "bob", nil
	}

	r.For(alice).Read(context.Background(), TagConversations, fetchAlice)
	r.For(bob).Read(context.Background(), TagConversations, fetchBob)

	// Invalidating bob must not touch alice's entry.
	r.Invalidate(bob, TagConversations)

	r.For(alice).Read(context.Background(), TagConversations, fetchAlice)
	r.For(bob).Read(context.Background(), TagConversations, fetchBob)

	if aliceCalls != 1 {
		t.Fatalf("alice fetched %d times, want 1", aliceCalls)
	}
	if bobCalls != 2 {
		t.Fatalf("bob fetched %d times, want 2", bobCalls)
	}
}

func TestRegistryInvalidateUnknownUser(t *testing.T) {
	r := NewRegistry()
	r.Invalidate(uuid.New(), TagConversations)
}

func TestMessagesTag(t *testing.T) {
	id := uuid.New()
	if got, want := MessagesTag(id), Tag("Messages:"+id.String()); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
