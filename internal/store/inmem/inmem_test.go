package inmem_test

import (
	"context"
	"sync"
	"testing"

	"github.com/samvaad/apiserver/internal/store"
	"github.com/samvaad/apiserver/internal/store/inmem"
	"github.com/samvaad/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountEmailUniqueCaseInsensitive(t *testing.T) {
	mem := inmem.NewStore()
	ctx := context.Background()

	created, err := mem.Accounts().Create(ctx, types.Account{
		Email: "Asha@Example.Com",
		Name:  "Asha",
		Role:  types.RoleCounsellor,
	})
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", created.Email)

	_, err = mem.Accounts().Create(ctx, types.Account{
		Email: "asha@example.com",
		Name:  "Asha Again",
		Role:  types.RoleCounsellor,
	})
	require.ErrorIs(t, err, store.ErrDuplicate)

	found, err := mem.Accounts().GetByEmail(ctx, "ASHA@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestStudentMobileUnique(t *testing.T) {
	mem := inmem.NewStore()
	ctx := context.Background()

	_, err := mem.Students().Create(ctx, types.Student{FullName: "Riya", Mobile: "9000000001"})
	require.NoError(t, err)

	_, err = mem.Students().Create(ctx, types.Student{FullName: "Someone Else", Mobile: "9000000001"})
	require.ErrorIs(t, err, store.ErrDuplicate)
}

func TestConcurrentStudentCreateSameMobile(t *testing.T) {
	mem := inmem.NewStore()
	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = mem.Students().Create(ctx, types.Student{
				FullName: "Riya",
				Mobile:   "9000000002",
			})
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
		} else {
			require.ErrorIs(t, err, store.ErrDuplicate)
		}
	}
	assert.Equal(t, 1, created, "exactly one concurrent create must win")
}

func TestDeleteStudentCascadesSessions(t *testing.T) {
	mem := inmem.NewStore()
	ctx := context.Background()

	student, err := mem.Students().Create(ctx, types.Student{FullName: "Riya", Mobile: "9000000003"})
	require.NoError(t, err)
	other, err := mem.Students().Create(ctx, types.Student{FullName: "Dev", Mobile: "9000000004"})
	require.NoError(t, err)

	_, err = mem.Sessions().Create(ctx, types.Session{StudentID: student.ID, Topic: "First"})
	require.NoError(t, err)
	_, err = mem.Sessions().Create(ctx, types.Session{StudentID: student.ID, Topic: "Second"})
	require.NoError(t, err)
	_, err = mem.Sessions().Create(ctx, types.Session{StudentID: other.ID, Topic: "Unrelated"})
	require.NoError(t, err)

	require.NoError(t, mem.Students().Delete(ctx, student.ID))

	_, err = mem.Students().GetByID(ctx, student.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	count, err := mem.Sessions().CountByStudent(ctx, student.ID)
	require.NoError(t, err)
	assert.Zero(t, count, "cascade must remove the student's sessions")

	remaining, err := mem.Sessions().List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, other.ID, remaining[0].StudentID)
}

func TestRequestDefaultsToNew(t *testing.T) {
	mem := inmem.NewStore()
	ctx := context.Background()

	request, err := mem.Requests().Create(ctx, types.Request{StudentPhone: "9000000005"})
	require.NoError(t, err)
	assert.Equal(t, types.RequestNew, request.Status)
	assert.False(t, request.CreatedAt.IsZero())
}

func TestSessionListFiltersByStudent(t *testing.T) {
	mem := inmem.NewStore()
	ctx := context.Background()

	riya, err := mem.Students().Create(ctx, types.Student{FullName: "Riya", Mobile: "9000000006"})
	require.NoError(t, err)
	dev, err := mem.Students().Create(ctx, types.Student{FullName: "Dev", Mobile: "9000000007"})
	require.NoError(t, err)

	_, err = mem.Sessions().Create(ctx, types.Session{StudentID: riya.ID, Topic: "A"})
	require.NoError(t, err)
	_, err = mem.Sessions().Create(ctx, types.Session{StudentID: dev.ID, Topic: "B"})
	require.NoError(t, err)

	all, err := mem.Sessions().List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := mem.Sessions().List(ctx, riya.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "A", mine[0].Topic)
}
