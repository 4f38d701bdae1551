package firestore

import (
	"context"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	"property-listing/internal/domain"
	apperrors "property-listing/pkg/errors"
)

type userDoc struct {
	Email        string     `firestore:"email"`
	Name         string     `firestore:"displayName"`
	Phone        string     `firestore:"phone,omitempty"`
	PasswordHash string     `firestore:"passwordHash"`
	Role         string     `firestore:"role"`
	CreatedAt    time.Time  `firestore:"createdAt"`
	UpdatedAt    time.Time  `firestore:"updatedAt"`
	DeletedAt    *time.Time `firestore:"deletedAt,omitempty"`
}

func toUserDoc(u *domain.User) userDoc {
	d := userDoc{
		Email: u.Email, Name: u.Name, Phone: u.Phone, PasswordHash: u.PasswordHash,
		Role: u.Role, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
	if u.DeletedAt.Valid {
		t := u.DeletedAt.Time
		d.DeletedAt = &t
	}
	return d
}

func (d userDoc) toDomain(id string) domain.User {
	u := domain.User{
		ID: id, Email: d.Email, Name: d.Name, Phone: d.Phone, PasswordHash: d.PasswordHash,
		Role: d.Role, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
	if d.DeletedAt != nil {
		u.DeletedAt = gorm.DeletedAt{Time: *d.DeletedAt, Valid: true}
	}
	return u
}

// UserRepo users/{uid}；封禁写 deletedAt，查询时过滤
type UserRepo struct{ c *firestore.Client }

var _ domain.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) col() *firestore.CollectionRef { return r.c.Collection(colUsers) }

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	// 邮箱唯一性在事务里检查
	return mapErr(r.c.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docs, err := tx.Documents(r.col().Where("email", "==", u.Email).Limit(1)).GetAll()
		if err != nil {
			return err
		}
		if len(docs) > 0 {
			return status.Error(codes.AlreadyExists, "email taken")
		}
		return tx.Create(r.col().Doc(u.ID), toUserDoc(u))
	}), "user")
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	snap, err := r.col().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr(err, "user")
	}
	return decodeActiveUser(snap)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	docs, err := r.col().Where("email", "==", email).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, mapErr(err, "user")
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return decodeActiveUser(docs[0])
}

func decodeActiveUser(snap *firestore.DocumentSnapshot) (*domain.User, error) {
	var d userDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, mapErr(err, "decode user")
	}
	if d.DeletedAt != nil {
		return nil, nil
	}
	u := d.toDomain(snap.Ref.ID)
	return &u, nil
}

// List Firestore 没有 LIKE，过滤和分页在内存里做
func (r *UserRepo) List(ctx context.Context, q domain.UserQuery) ([]domain.User, int64, error) {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	it := r.col().Documents(ctx)
	defer it.Stop()

	needle := strings.ToLower(strings.TrimSpace(q.Q))
	var all []domain.User
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, mapErr(err, "list users")
		}
		var d userDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, 0, mapErr(err, "decode user")
		}
		if d.DeletedAt != nil && !q.WithDeleted {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(d.Email), needle) &&
			!strings.Contains(strings.ToLower(d.Name), needle) {
			continue
		}
		all = append(all, d.toDomain(snap.Ref.ID))
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	if q.Offset >= len(all) {
		return []domain.User{}, total, nil
	}
	end := min(q.Offset+q.Limit, len(all))
	return all[q.Offset:end], total, nil
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now()
	_, err := r.col().Doc(u.ID).Set(ctx, toUserDoc(u))
	return mapErr(err, "user")
}

func (r *UserRepo) SoftDelete(ctx context.Context, id string) error {
	ref := r.col().Doc(id)
	return mapErr(r.c.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var d userDoc
		if err := snap.DataTo(&d); err != nil {
			return err
		}
		if d.DeletedAt != nil {
			return apperrors.New(apperrors.CodeNotFound, "user not found")
		}
		return tx.Update(ref, []firestore.Update{{Path: "deletedAt", Value: time.Now()}})
	}), "user")
}
