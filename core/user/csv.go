package user

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/onboardme/backend/core"
)

// csv row: firstName,lastName,email,password,roleName,areaName
const csvRowFields = 6

// ImportReport summarizes a bulk CSV user import. Row failures are isolated:
// the batch always runs to the end.
type ImportReport struct {
	BatchID      string   `json:"batch_id"`
	TotalRecords int      `json:"totalRecords"`
	Created      int      `json:"created"`
	Failed       int      `json:"failed"`
	Errors       []string `json:"errors"`
}

// ImportCSV creates one user per data row (the header row is skipped) and
// emails each created user their credentials. A duplicate email, unknown role
// or malformed row fails that row only.
func (svc *Service) ImportCSV(ctx context.Context, r io.Reader) (ImportReport, error) {
	report := ImportReport{
		BatchID: uuid.New().String(),
		Errors:  make([]string, 0),
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var headerSkipped bool
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ImportReport{}, errors.Wrap(err, "reading csv")
		}
		if !headerSkipped {
			headerSkipped = true
			continue
		}

		report.TotalRecords++
		if err := svc.importRow(ctx, row); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, rowError(report.TotalRecords, row, err))
			continue
		}
		report.Created++
	}

	return report, nil
}

func (svc *Service) importRow(ctx context.Context, row []string) error {
	if len(row) < csvRowFields {
		return errors.Errorf("se esperaban %d columnas, hay %d", csvRowFields, len(row))
	}

	nu := NewUser{
		FirstName: core.CleanString(row[0]),
		LastName:  core.CleanString(row[1]),
		Email:     core.CleanString(row[2], true /* lower */),
		Password:  strings.TrimSpace(row[3]),
		RoleName:  core.CleanString(row[4]),
		Area:      core.CleanString(row[5]),
	}

	if _, err := svc.repo.GetUserByEmail(ctx, nu.Email); err == nil {
		return errors.Errorf("el usuario con email %s ya existe en la plataforma", nu.Email)
	} else if errors.Cause(err) != ErrNotFound {
		return err
	}
	role, err := svc.repo.GetRoleByName(ctx, nu.RoleName)
	if err != nil {
		if errors.Cause(err) == ErrRoleNotFound {
			return errors.Errorf("rol no encontrado: %s", nu.RoleName)
		}
		return err
	}

	usr := User{
		FirstName:   nu.FirstName,
		LastName:    nu.LastName,
		Email:       nu.Email,
		Area:        nu.Area,
		Status:      StatusActive,
		Role:        role,
		CreatedDate: time.Now().UTC(),
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr, err = svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return err
	}

	svc.sendCredentialsEmail(usr, nu.Password)
	return nil
}

// sendCredentialsEmail sends the new user their plaintext credentials.
// Fire-and-forget; delivery is the mail service's problem.
func (svc *Service) sendCredentialsEmail(usr User, pwd string) {
	body := fmt.Sprintf(
		"Estimado/a %s,\n\n"+
			"Nos complace informarle que se le ha dado de alta en nuestra plataforma.\n"+
			"Sus credenciales son las siguientes:\n\n"+
			"Email: %s\nContraseña: %s\n\n"+
			"Por favor, ingrese a la plataforma y cambie su contraseña a la brevedad.\n\n"+
			"Saludos cordiales,\nEl equipo de soporte.",
		usr.FirstName, usr.Email, pwd,
	)
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject: "Alta en la Plataforma " + svc.conf.AppName,
		BodyStr: body,
	})
}

func rowError(line int, row []string, err error) string {
	var person string
	if len(row) >= 2 && (row[0] != "" || row[1] != "") {
		person = " | Usuario: " + strings.TrimSpace(row[0]+" "+row[1])
	}
	return fmt.Sprintf("Error en la línea %d%s -> %s", line, person, err)
}
