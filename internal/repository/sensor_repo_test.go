package repository_test

import (
	"context"
	"regexp"
	"testing"

	"boilermon/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSensorSQLite_ListBySite(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewSensorSQLite(db)

	rows := sqlmock.NewRows([]string{"id", "site_id", "sensor_id", "sensor_type", "unit", "min_value", "max_value", "is_active"}).
		AddRow(1, "BLR001", "P1", "pressure", "bar", 0.0, 25.0, true).
		AddRow(2, "BLR001", "T1", "temperature", "celsius", nil, nil, true)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sensors WHERE site_id = ? AND is_active = 1")).
		WithArgs("BLR001").
		WillReturnRows(rows)

	sensors, err := repo.ListBySite(context.Background(), "BLR001")
	if err != nil {
		t.Fatalf("ListBySite() error = %v", err)
	}
	if len(sensors) != 2 {
		t.Fatalf("want 2 sensors, got %d", len(sensors))
	}

	p := sensors[0]
	if p.SensorID != "P1" || p.MinValue == nil || *p.MinValue != 0 || p.MaxValue == nil || *p.MaxValue != 25 {
		t.Errorf("pressure descriptor: %+v", p)
	}

	// NULL bounds stay nil so the range check is skipped for this sensor.
	tmp := sensors[1]
	if tmp.MinValue != nil || tmp.MaxValue != nil {
		t.Errorf("temperature bounds must be nil, got %+v", tmp)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSensorSQLite_ListBySite_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := repository.NewSensorSQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sensors")).
		WithArgs("BLR002").
		WillReturnRows(sqlmock.NewRows([]string{"id", "site_id", "sensor_id", "sensor_type", "unit", "min_value", "max_value", "is_active"}))

	sensors, err := repo.ListBySite(context.Background(), "BLR002")
	if err != nil {
		t.Fatalf("ListBySite() error = %v", err)
	}
	if len(sensors) != 0 {
		t.Errorf("want no sensors, got %+v", sensors)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
