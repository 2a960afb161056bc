package users

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/usersvc/internal/domain/repository"
	dto "github.com/dropDatabas3/usersvc/internal/http/dto/users"
)

// fakeRepo es un repositorio en memoria que cuenta llamadas.
type fakeRepo struct {
	mu    sync.Mutex
	users map[string]*repository.User
	calls map[string]int
	seq   int
	fail  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: map[string]*repository.User{}, calls: map[string]int{}}
}

func (f *fakeRepo) hit(op string) error {
	f.calls[op]++
	return f.fail
}

func (f *fakeRepo) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func clone(u *repository.User) *repository.User {
	c := *u
	return &c
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("GetByID"); err != nil {
		return nil, err
	}
	if u, ok := f.users[id]; ok {
		return clone(u), nil
	}
	return nil, nil
}

func (f *fakeRepo) GetByEmail(_ context.Context, email string) (*repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("GetByEmail"); err != nil {
		return nil, err
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return clone(u), nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) list(active bool) []*repository.User {
	var out []*repository.User
	for _, u := range f.users {
		if !active || u.IsActive {
			out = append(out, clone(u))
		}
	}
	return out
}

func (f *fakeRepo) ListAll(context.Context) ([]*repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("ListAll"); err != nil {
		return nil, err
	}
	return f.list(false), nil
}

func (f *fakeRepo) ListActive(context.Context) ([]*repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("ListActive"); err != nil {
		return nil, err
	}
	return f.list(true), nil
}

func (f *fakeRepo) ListPaged(_ context.Context, pageSize int, token string) (repository.Page[repository.User], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("ListPaged"); err != nil {
		return repository.Page[repository.User]{}, err
	}
	if token == "bad" {
		return repository.Page[repository.User]{}, errors.Join(errors.New("malformed token"), repository.ErrInvalidInput)
	}
	return repository.Page[repository.User]{Items: f.list(false), ContinuationToken: "next"}, nil
}

func (f *fakeRepo) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("Count"); err != nil {
		return 0, err
	}
	return int64(len(f.users)), nil
}

func (f *fakeRepo) Create(_ context.Context, u *repository.User) (*repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("Create"); err != nil {
		return nil, err
	}
	f.seq++
	u.ID = "u" + string(rune('0'+f.seq))
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	u.PartitionKey = u.PartitionKeyValue()
	f.users[u.ID] = clone(u)
	return u, nil
}

func (f *fakeRepo) Update(_ context.Context, u *repository.User) (*repository.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("Update"); err != nil {
		return nil, err
	}
	if _, ok := f.users[u.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	u.UpdatedAt = time.Now().UTC()
	f.users[u.ID] = clone(u)
	return u, nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.hit("Delete"); err != nil {
		return err
	}
	if _, ok := f.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func newTestService() (Service, *fakeRepo) {
	repo := newFakeRepo()
	return NewService(Deps{Repo: repo}), repo
}

func john() *dto.UserDTO {
	return &dto.UserDTO{FirstName: "John", LastName: "Doe", Email: "john@example.com", IsActive: dto.Bool(true)}
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	cases := []struct {
		name string
		in   *dto.UserDTO
		msg  string
	}{
		{"nil payload", nil, "User payload is required"},
		{"empty email", &dto.UserDTO{FirstName: "John"}, "Email is required"},
		{"blank email", &dto.UserDTO{FirstName: "John", Email: "   "}, "Email is required"},
		{"empty first name", &dto.UserDTO{Email: "a@b.c"}, "FirstName is required"},
		{"both empty reports email first", &dto.UserDTO{}, "Email is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUserInvalidInput))
			assert.Equal(t, tc.msg, err.Error())
		})
	}
	assert.Zero(t, repo.total(), "validation must not reach the repository")
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	created, err := svc.Create(ctx, john())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "John", created.FirstName)
	assert.Equal(t, "Doe", created.LastName)
	assert.Equal(t, "john@example.com", created.Email)
	assert.True(t, *created.IsActive)

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.Email, got.Email)

	byEmail, err := svc.GetByEmail(ctx, "JOHN@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, created.ID, byEmail.ID)
}

func TestCreateDefaultsIsActive(t *testing.T) {
	svc, _ := newTestService()
	created, err := svc.Create(context.Background(), &dto.UserDTO{FirstName: "A", Email: "a@example.com"})
	require.NoError(t, err)
	assert.True(t, *created.IsActive)
}

func TestCreateDuplicateEmailIgnoresCase(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.Create(ctx, john())
	require.NoError(t, err)

	dup := john()
	dup.Email = "John@Example.COM"
	_, err = svc.Create(ctx, dup)
	assert.True(t, errors.Is(err, ErrUserEmailDuplicate), "got %v", err)
}

func TestEmptyLookupsSkipRepository(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	got, err := svc.GetByID(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = svc.GetByEmail(ctx, "  ")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Zero(t, repo.total())
}

func TestGetByIDMissing(t *testing.T) {
	svc, _ := newTestService()
	got, err := svc.GetByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	created, err := svc.Create(ctx, john())
	require.NoError(t, err)

	in := john()
	in.Email = "updated@example.com"
	in.IsActive = dto.Bool(false)
	updated, err := svc.Update(ctx, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "updated@example.com", updated.Email)
	assert.False(t, *updated.IsActive)
	assert.True(t, created.CreatedAt.Equal(*updated.CreatedAt))

	// omitir isActive conserva el valor
	in.IsActive = nil
	updated, err = svc.Update(ctx, created.ID, in)
	require.NoError(t, err)
	assert.False(t, *updated.IsActive)
}

func TestUpdateErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.Update(ctx, "x", nil)
	assert.True(t, errors.Is(err, ErrUserInvalidInput))

	_, err = svc.Update(ctx, "", john())
	assert.True(t, errors.Is(err, ErrUserInvalidInput))
	assert.Equal(t, "Id is required", err.Error())

	_, err = svc.Update(ctx, "ghost", john())
	assert.True(t, errors.Is(err, ErrUserNotFound))
	assert.Equal(t, "User with id 'ghost' not found", err.Error())
}

func TestUpdateRequiresEmailAndFirstName(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	created, err := svc.Create(ctx, john())
	require.NoError(t, err)

	in := john()
	in.Email = "  "
	_, err = svc.Update(ctx, created.ID, in)
	assert.True(t, errors.Is(err, ErrUserInvalidInput))
	assert.Equal(t, "Email is required", err.Error())

	in = john()
	in.FirstName = ""
	_, err = svc.Update(ctx, created.ID, in)
	assert.True(t, errors.Is(err, ErrUserInvalidInput))
	assert.Equal(t, "FirstName is required", err.Error())

	// la validación corre antes de buscar: id inexistente con payload inválido es 400
	_, err = svc.Update(ctx, "ghost", &dto.UserDTO{})
	assert.True(t, errors.Is(err, ErrUserInvalidInput))

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "john@example.com", got.Email)
	assert.Equal(t, "John", got.FirstName)
}

func TestUpdateEmailConflict(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	a, err := svc.Create(ctx, john())
	require.NoError(t, err)
	_, err = svc.Create(ctx, &dto.UserDTO{FirstName: "Jane", Email: "jane@example.com"})
	require.NoError(t, err)

	in := john()
	in.Email = "JANE@example.com"
	_, err = svc.Update(ctx, a.ID, in)
	assert.True(t, errors.Is(err, ErrUserEmailDuplicate), "got %v", err)

	// cambiar solo mayúsculas del propio email no es conflicto
	in.Email = "John@Example.com"
	_, err = svc.Update(ctx, a.ID, in)
	assert.NoError(t, err)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	created, err := svc.Create(ctx, john())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	err = svc.Delete(ctx, created.ID)
	assert.True(t, errors.Is(err, ErrUserNotFound))
	assert.Contains(t, err.Error(), created.ID)
}

func TestListsAndCount(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.Create(ctx, john())
	require.NoError(t, err)
	_, err = svc.Create(ctx, &dto.UserDTO{FirstName: "Jane", Email: "jane@example.com", IsActive: dto.Bool(false)})
	require.NoError(t, err)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "John", active[0].FirstName)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	page, err := svc.ListPage(ctx, 10, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, "next", page.ContinuationToken)

	_, err = svc.ListPage(ctx, 10, "bad")
	assert.True(t, errors.Is(err, ErrUserInvalidInput))
}

func TestRepositoryFailuresAreWrapped(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	boom := errors.New("store down")
	repo.fail = boom

	_, err := svc.ListAll(ctx)
	assert.True(t, errors.Is(err, boom))
	_, err = svc.Create(ctx, john())
	assert.True(t, errors.Is(err, boom))
	assert.False(t, errors.Is(err, ErrUserInvalidInput))
	_, err = svc.GetByID(ctx, "x")
	assert.True(t, errors.Is(err, boom))
}
