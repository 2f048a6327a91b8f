package sqlite_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/memgatehq/memgate/pkg/memmachine"
	"github.com/memgatehq/memgate/pkg/spool"
	"github.com/memgatehq/memgate/pkg/spool/sqlite"
)

var _ = Describe("Driver", func() {
	var (
		driver *sqlite.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		driver, err = sqlite.NewDriver(":memory:")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if driver != nil {
			driver.Close()
		}
	})

	It("round-trips entries with their messages and timestamps", func() {
		entry := spool.NewEntry([]memmachine.Message{
			{Content: "hello", Producer: "u1", ProducedFor: "a1", Role: "user"},
		})
		Expect(driver.Append(ctx, entry)).To(Succeed())

		entries, err := driver.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].ID).To(Equal(entry.ID))
		Expect(entries[0].CreatedAt.UTC()).To(BeTemporally("~", entry.CreatedAt))
		Expect(entries[0].Messages).To(Equal(entry.Messages))
	})

	It("lists entries oldest first", func() {
		first := spool.NewEntry([]memmachine.Message{{Content: "one"}})
		second := spool.NewEntry([]memmachine.Message{{Content: "two"}})
		second.CreatedAt = first.CreatedAt.Add(1)

		Expect(driver.Append(ctx, second)).To(Succeed())
		Expect(driver.Append(ctx, first)).To(Succeed())

		entries, err := driver.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries[0].Messages[0].Content).To(Equal("one"))
		Expect(entries[1].Messages[0].Content).To(Equal("two"))
	})

	It("ignores duplicate appends", func() {
		entry := spool.NewEntry([]memmachine.Message{{Content: "keep"}})
		Expect(driver.Append(ctx, entry)).To(Succeed())

		dup := entry
		dup.Messages = []memmachine.Message{{Content: "replace"}}
		Expect(driver.Append(ctx, dup)).To(Succeed())

		entries, err := driver.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Messages[0].Content).To(Equal("keep"))
	})

	It("removes entries and reports missing IDs", func() {
		entry := spool.NewEntry(nil)
		Expect(driver.Append(ctx, entry)).To(Succeed())
		Expect(driver.Remove(ctx, entry.ID)).To(Succeed())
		Expect(driver.Remove(ctx, entry.ID)).To(MatchError(spool.ErrNotFound{ID: entry.ID}))
	})

	It("counts entries", func() {
		Expect(driver.Append(ctx, spool.NewEntry(nil))).To(Succeed())
		count, err := driver.Len(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(1))
	})

	It("persists entries across reopen when backed by a file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "spool.db")
		fileDriver, err := sqlite.NewDriver(path)
		Expect(err).NotTo(HaveOccurred())

		entry := spool.NewEntry([]memmachine.Message{{Content: "durable"}})
		Expect(fileDriver.Append(ctx, entry)).To(Succeed())
		Expect(fileDriver.Close()).To(Succeed())

		reopened, err := sqlite.NewDriver(path)
		Expect(err).NotTo(HaveOccurred())
		defer reopened.Close()

		entries, err := reopened.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Messages[0].Content).To(Equal("durable"))
	})
})
