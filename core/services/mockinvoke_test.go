package services

import (
	"context"
	"errors"
	"testing"

	"github.com/kubescape/funcrunner/core/domain"
)

func TestMockInvocationService_Invoke(t *testing.T) {
	type fields struct {
		happy bool
	}
	type args struct {
		name  string
		input []byte
	}
	tests := []struct {
		name    string
		fields  fields
		args    args
		want    string
		wantErr error
	}{
		{
			name: "happy",
			fields: fields{
				happy: true,
			},
			args: args{name: "echo", input: []byte("hi")},
			want: "echo:hi",
		},
		{
			name:    "unhappy",
			args:    args{name: "echo"},
			wantErr: domain.ErrMockError,
		},
		{
			name: "unknown function",
			fields: fields{
				happy: true,
			},
			args:    args{name: "missing"},
			wantErr: domain.ErrUnknownFunction,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMockInvocationService(tt.fields.happy)
			got, err := m.Invoke(context.TODO(), tt.args.name, tt.args.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Invoke() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if string(got) != tt.want {
				t.Errorf("Invoke() got = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMockInvocationService_PullImages(t *testing.T) {
	type fields struct {
		happy bool
	}
	tests := []struct {
		name    string
		fields  fields
		wantErr bool
	}{
		{
			name: "happy",
			fields: fields{
				happy: true,
			},
		},
		{
			name:    "unhappy",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMockInvocationService(tt.fields.happy)
			if err := m.PullImages(context.TODO()); (err != nil) != tt.wantErr {
				t.Errorf("PullImages() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMockInvocationService_Ready(t *testing.T) {
	type fields struct {
		happy bool
	}
	tests := []struct {
		name   string
		fields fields
		want   bool
	}{
		{
			name: "happy",
			fields: fields{
				happy: true,
			},
			want: true,
		},
		{
			name: "unhappy",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMockInvocationService(tt.fields.happy)
			if got := m.Ready(context.TODO()); got != tt.want {
				t.Errorf("Ready() = %v, want %v", got, tt.want)
			}
		})
	}
}
