package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsTransientConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "deadlock",
			err:  &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"},
			want: true,
		},
		{
			name: "lock wait timeout",
			err:  &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"},
			want: true,
		},
		{
			name: "wrapped deadlock",
			err:  fmt.Errorf("create order: %w", &mysql.MySQLError{Number: 1213}),
			want: true,
		},
		{
			name: "duplicate key is not transient",
			err:  &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"},
			want: false,
		},
		{
			name: "translated duplicate key is not transient",
			err:  gorm.ErrDuplicatedKey,
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("connection reset by peer"),
			want: false,
		},
		{
			name: "nil",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTransientConflict(tt.err))
		})
	}
}
