package models

import "github.com/google/uuid"

// ensureID: Kayıt oluşturulurken boş ID'ye yeni UUID atar
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
