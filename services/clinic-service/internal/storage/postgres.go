package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/clinicbook/libs/db"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/outbox"
)

const appointmentColumns = `id, doctor_id, slot, status, message, patient_name, patient_phone, patient_email,
	doctor_name, doctor_specialization, created_at`

// PostgresStore persists to Postgres. Every mutation that produces a domain
// event writes the outbox row in the same transaction.
type PostgresStore struct {
	pool   *db.Pool
	outbox *outbox.Repository
	now    func() time.Time
}

func NewPostgresStore(pool *db.Pool, outboxRepo *outbox.Repository) *PostgresStore {
	return &PostgresStore{pool: pool, outbox: outboxRepo, now: time.Now}
}

func (s *PostgresStore) ListDoctors(ctx context.Context) ([]model.Doctor, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, specialization, week_offs
		FROM doctors
		ORDER BY name, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doctors []model.Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return doctors, nil
}

func (s *PostgresStore) GetDoctor(ctx context.Context, id string) (model.Doctor, error) {
	d, err := scanDoctor(s.pool.QueryRow(ctx, `
		SELECT id, name, specialization, week_offs
		FROM doctors
		WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Doctor{}, ErrNotFound
	}
	return d, err
}

func (s *PostgresStore) UpsertDoctor(ctx context.Context, d model.Doctor) (model.Doctor, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	weekOffs := []string(d.WeekOffs)
	if weekOffs == nil {
		weekOffs = []string{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO doctors (id, name, specialization, week_offs)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			specialization = EXCLUDED.specialization,
			week_offs = EXCLUDED.week_offs,
			updated_at = now()
	`, d.ID, d.Name, d.Specialization, weekOffs)
	if err != nil {
		return model.Doctor{}, err
	}
	return d, nil
}

func (s *PostgresStore) DeleteDoctorRecord(ctx context.Context, id string) error {
	return s.pool.InTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		evt, err := outbox.DoctorDeletedEvent(id, s.now())
		if err != nil {
			return err
		}
		_, err = s.outbox.Insert(ctx, tx, evt)
		return err
	})
}

func (s *PostgresStore) ListAppointments(ctx context.Context, f AppointmentFilter) ([]model.Appointment, error) {
	var (
		doctorID *string
		status   *string
		from, to *time.Time
	)
	if f.DoctorID != "" {
		doctorID = &f.DoctorID
	}
	if f.Status != "" {
		st := string(f.Status)
		status = &st
	}
	if !f.From.IsZero() {
		from = &f.From
	}
	if !f.To.IsZero() {
		to = &f.To
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE ($1::text IS NULL OR doctor_id = $1)
			AND ($2::text IS NULL OR status = $2)
			AND ($3::timestamptz IS NULL OR slot >= $3)
			AND ($4::timestamptz IS NULL OR slot < $4)
		ORDER BY slot ASC, id ASC
	`, doctorID, status, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func (s *PostgresStore) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	a, err := scanAppointment(s.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Appointment{}, ErrNotFound
	}
	return a, err
}

// InsertAppointmentIfAbsent relies on UNIQUE (doctor_id, slot); key is
// implied by appt.DoctorID and appt.Slot.
func (s *PostgresStore) InsertAppointmentIfAbsent(ctx context.Context, key SlotKey, appt model.Appointment) (string, error) {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	err := s.pool.InTx(ctx, func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx, `
			INSERT INTO appointments
				(id, doctor_id, slot, status, message, patient_name, patient_phone, patient_email,
				 doctor_name, doctor_specialization, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (doctor_id, slot) DO NOTHING
			RETURNING id
		`, appt.ID, appt.DoctorID, appt.Slot, string(appt.Status), appt.Message, appt.PatientName, appt.PatientPhone,
			appt.PatientEmail, appt.DoctorName, appt.DoctorSpecialization, appt.CreatedAt).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrConflict
		}
		if err != nil {
			return err
		}
		evt, err := outbox.AppointmentEvent(appt, s.now())
		if err != nil {
			return err
		}
		_, err = s.outbox.Insert(ctx, tx, evt)
		return err
	})
	if err != nil {
		return "", err
	}
	return appt.ID, nil
}

func (s *PostgresStore) DeleteAppointment(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	return err
}

// UpdateAppointmentStatus moves id from one status to another. The event row
// and, for a cancel, the canceled archive entry commit in the same transaction.
func (s *PostgresStore) UpdateAppointmentStatus(ctx context.Context, id string, from, to model.Status, at time.Time) (model.Appointment, error) {
	var out model.Appointment
	err := s.pool.InTx(ctx, func(tx pgx.Tx) error {
		a, err := scanAppointment(tx.QueryRow(ctx, `
			UPDATE appointments
			SET status = $3, updated_at = now()
			WHERE id = $1 AND status = $2
			RETURNING `+appointmentColumns, id, string(from), string(to)))
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, id).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return ErrNotFound
			}
			return ErrStatusChanged
		}
		if err != nil {
			return err
		}
		if to == model.StatusCanceled {
			if _, err := tx.Exec(ctx, `
				INSERT INTO canceled_appointments (`+appointmentColumns+`, archived_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
				ON CONFLICT (id) DO NOTHING
			`, archiveArgs(model.NewArchiveRecord(a, at))...); err != nil {
				return fmt.Errorf("archive canceled appointment: %w", err)
			}
		}
		evt, err := outbox.AppointmentEvent(a, at)
		if err != nil {
			return err
		}
		if _, err := s.outbox.Insert(ctx, tx, evt); err != nil {
			return err
		}
		out = a
		return nil
	})
	return out, err
}

func (s *PostgresStore) SetAppointmentMessage(ctx context.Context, id, text string) (model.Appointment, error) {
	a, err := scanAppointment(s.pool.QueryRow(ctx, `
		UPDATE appointments
		SET message = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns, id, text))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Appointment{}, ErrNotFound
	}
	return a, err
}

func (s *PostgresStore) ArchiveRetiredDoctor(ctx context.Context, rec model.ArchiveRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO retired_doctor_appointments (`+appointmentColumns+`, archived_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`, archiveArgs(rec)...)
	return err
}

func (s *PostgresStore) GetCanceledArchive(ctx context.Context, appointmentID string) (model.ArchiveRecord, error) {
	return s.getArchive(ctx, "canceled_appointments", appointmentID)
}

func (s *PostgresStore) GetRetiredArchive(ctx context.Context, appointmentID string) (model.ArchiveRecord, error) {
	return s.getArchive(ctx, "retired_doctor_appointments", appointmentID)
}

// table is one of the two archive table names above, never user input.
func (s *PostgresStore) getArchive(ctx context.Context, table, id string) (model.ArchiveRecord, error) {
	var rec model.ArchiveRecord
	var status string
	err := s.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`, archived_at
		FROM `+table+`
		WHERE id = $1
	`, id).Scan(
		&rec.ID,
		&rec.DoctorID,
		&rec.Slot,
		&status,
		&rec.Message,
		&rec.PatientName,
		&rec.PatientPhone,
		&rec.PatientEmail,
		&rec.DoctorName,
		&rec.DoctorSpecialization,
		&rec.CreatedAt,
		&rec.ArchivedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ArchiveRecord{}, ErrNotFound
	}
	if err != nil {
		return model.ArchiveRecord{}, err
	}
	rec.Status = model.Status(status)
	return rec, nil
}

func archiveArgs(rec model.ArchiveRecord) []any {
	return []any{
		rec.ID, rec.DoctorID, rec.Slot, string(rec.Status), rec.Message, rec.PatientName, rec.PatientPhone,
		rec.PatientEmail, rec.DoctorName, rec.DoctorSpecialization, rec.CreatedAt, rec.ArchivedAt,
	}
}

func scanDoctor(row pgx.Row) (model.Doctor, error) {
	var d model.Doctor
	var weekOffs []string
	if err := row.Scan(&d.ID, &d.Name, &d.Specialization, &weekOffs); err != nil {
		return model.Doctor{}, err
	}
	d.WeekOffs = model.WeekOffs(weekOffs)
	return d, nil
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	var status string
	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.Slot,
		&status,
		&a.Message,
		&a.PatientName,
		&a.PatientPhone,
		&a.PatientEmail,
		&a.DoctorName,
		&a.DoctorSpecialization,
		&a.CreatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	a.Status = model.Status(status)
	return a, nil
}
