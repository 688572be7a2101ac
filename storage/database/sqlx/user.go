package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/onboardme/backend/core/user"
)

const pqUniqueViolation = "23505"

type userRow struct {
	ID           int       `db:"id_legajo"`
	FirstName    string    `db:"nombre"`
	LastName     string    `db:"apellido"`
	Email        string    `db:"email"`
	PasswordHash []byte    `db:"contrasenia"`
	Area         string    `db:"area"`
	Status       int       `db:"estado"`
	Address      string    `db:"direccion"`
	Phone        string    `db:"telefono"`
	BirthDate    null.Time `db:"fecha_nacimiento"`
	CreatedDate  time.Time `db:"fecha_alta"`
	RoleID       int       `db:"rol_id"`
	RoleName     string    `db:"rol_nombre"`
	BuddyID      null.Int  `db:"buddy_id"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Area:         r.Area,
		Status:       r.Status,
		Address:      r.Address,
		Phone:        r.Phone,
		BirthDate:    r.BirthDate,
		Role:         user.Role{ID: r.RoleID, Name: r.RoleName},
		BuddyID:      r.BuddyID,
		CreatedDate:  r.CreatedDate,
	}
}

const selectUser = `
SELECT u.id_legajo, u.nombre, u.apellido, u.email, u.contrasenia, u.area, u.estado,
       u.direccion, u.telefono, u.fecha_nacimiento, u.fecha_alta,
       u.rol_id, r.nombre AS rol_nombre, u.buddy_id
FROM usuario u
JOIN rol r ON r.id = u.rol_id`

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	const q = `
INSERT INTO usuario (nombre, apellido, email, contrasenia, area, estado, direccion,
                     telefono, fecha_nacimiento, fecha_alta, rol_id, buddy_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id_legajo`

	err := repo.db.QueryRowContext(ctx, q,
		usr.FirstName, usr.LastName, usr.Email, usr.PasswordHash, usr.Area, usr.Status,
		usr.Address, usr.Phone, usr.BirthDate, usr.CreatedDate, usr.Role.ID, usr.BuddyID,
	).Scan(&usr.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, selectUser+" ORDER BY u.id_legajo"); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	var row userRow
	err := repo.db.GetContext(ctx, &row, selectUser+" WHERE u.id_legajo = $1", id)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var row userRow
	err := repo.db.GetContext(ctx, &row, selectUser+" WHERE lower(u.email) = lower($1)", email)
	if err == sql.ErrNoRows {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting user by email")
	}
	return row.toUser(), nil
}

func (repo *userRepository) QueryUsersByBuddyID(ctx context.Context, buddyID int) ([]user.User, error) {
	var rows []userRow
	err := repo.db.SelectContext(ctx, &rows, selectUser+" WHERE u.buddy_id = $1 ORDER BY u.id_legajo", buddyID)
	if err != nil {
		return nil, errors.Wrap(err, "querying mentees")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	const q = `
UPDATE usuario
SET nombre = $2, apellido = $3, email = $4, contrasenia = $5, area = $6, estado = $7,
    direccion = $8, telefono = $9, fecha_nacimiento = $10, rol_id = $11, buddy_id = $12
WHERE id_legajo = $1`

	res, err := repo.db.ExecContext(ctx, q,
		usr.ID, usr.FirstName, usr.LastName, usr.Email, usr.PasswordHash, usr.Area,
		usr.Status, usr.Address, usr.Phone, usr.BirthDate, usr.Role.ID, usr.BuddyID,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) GetRoleByName(ctx context.Context, name string) (user.Role, error) {
	var role user.Role
	err := repo.db.QueryRowContext(ctx,
		"SELECT id, nombre FROM rol WHERE lower(nombre) = lower($1)", name,
	).Scan(&role.ID, &role.Name)
	if err == sql.ErrNoRows {
		return user.Role{}, user.ErrRoleNotFound
	}
	if err != nil {
		return user.Role{}, errors.Wrap(err, "getting role")
	}
	return role, nil
}

func (repo *userRepository) QueryAllRoles(ctx context.Context) ([]user.Role, error) {
	rows, err := repo.db.QueryContext(ctx, "SELECT id, nombre FROM rol ORDER BY id")
	if err != nil {
		return nil, errors.Wrap(err, "querying roles")
	}
	defer func() { _ = rows.Close() }()

	var roles []user.Role
	for rows.Next() {
		var role user.Role
		if err = rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, errors.Wrap(err, "scanning role")
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
