package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func TestNewMemoryStore(t *testing.T) {
	g := NewWithT(t)

	store := NewMemoryStore()

	g.Expect(store).ToNot(BeNil())
	g.Expect(store.codes).ToNot(BeNil())
	g.Expect(store.codes).To(BeEmpty())
	g.Expect(store.evictionQueue).To(BeEmpty())
}

func TestMemoryStore_PutAndGet(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		expiresIn int
	}{
		{
			name:      "positive expiry",
			code:      "f47ac10b-58cc-4372-a567-0e02b2c3d479",
			expiresIn: 1200,
		},
		{
			name:      "zero expiry marks an invalid subscription",
			code:      "no-subscription-code",
			expiresIn: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			store := NewMemoryStore()
			ctx := context.Background()

			g.Expect(store.Put(ctx, tt.code, tt.expiresIn, 1800*time.Second)).To(Succeed())

			expiresIn, ok, err := store.Get(ctx, tt.code)
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(ok).To(BeTrue())
			g.Expect(expiresIn).To(Equal(tt.expiresIn))
		})
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	g := NewWithT(t)
	store := NewMemoryStore()

	_, ok, err := store.Get(context.Background(), "never-stored")

	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(ok).To(BeFalse())
}

func TestMemoryStore_GetDoesNotConsume(t *testing.T) {
	g := NewWithT(t)
	store := NewMemoryStore()
	ctx := context.Background()

	g.Expect(store.Put(ctx, "repeat-code", 900, 1800*time.Second)).To(Succeed())

	// A code stays redeemable until its TTL lapses.
	for range 3 {
		expiresIn, ok, err := store.Get(ctx, "repeat-code")
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(ok).To(BeTrue())
		g.Expect(expiresIn).To(Equal(900))
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	g := NewWithT(t)
	store := NewMemoryStore()
	ctx := context.Background()

	now := time.Now()
	store.nowFunc = func() time.Time { return now }

	g.Expect(store.Put(ctx, "short-lived", 1200, time.Second)).To(Succeed())

	_, ok, err := store.Get(ctx, "short-lived")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(ok).To(BeTrue())

	// Past the TTL the entry must never resolve, and the sweep must
	// drop it from the map.
	now = now.Add(2 * time.Second)

	_, ok, err = store.Get(ctx, "short-lived")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(ok).To(BeFalse())
	g.Expect(store.codes).To(BeEmpty())
	g.Expect(store.evictionQueue).To(BeEmpty())
}

func TestMemoryStore_MaxSizeEviction(t *testing.T) {
	g := NewWithT(t)
	store := NewMemoryStore()
	store.maxSize = 3
	ctx := context.Background()

	for i := range 4 {
		code := fmt.Sprintf("code-%d", i)
		g.Expect(store.Put(ctx, code, i, 1800*time.Second)).To(Succeed())
	}

	// The oldest entry was evicted to make room.
	_, ok, err := store.Get(ctx, "code-0")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(ok).To(BeFalse())

	for i := 1; i < 4; i++ {
		expiresIn, ok, err := store.Get(ctx, fmt.Sprintf("code-%d", i))
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(ok).To(BeTrue())
		g.Expect(expiresIn).To(Equal(i))
	}
}
