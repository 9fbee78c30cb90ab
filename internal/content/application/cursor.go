package application

import (
	"encoding/base64"
	"strconv"
)

// CursorCodec convierte offsets en cursores opacos y viceversa.
// Los cursores son posiciones, no huellas de contenido: si el filtro o el orden
// cambian entre peticiones, el offset se interpreta sobre el nuevo conjunto.
type CursorCodec struct{}

// Encode devuelve base64 del offset en decimal.
func (CursorCodec) Encode(offset int) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

// Decode devuelve el offset del cursor, o 0 si está vacío o no es válido.
func (CursorCodec) Decode(cursor string) int {
	if cursor == "" {
		return 0
	}
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0
	}
	offset, err := strconv.Atoi(string(raw))
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}
