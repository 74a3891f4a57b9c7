package dto

// ImportFailure: Row = nomor baris di file (header = baris 1).
type ImportFailure struct {
	Row         int    `json:"row"`
	IDPelanggan string `json:"id_pelanggan,omitempty"`
	Reason      string `json:"reason"`
}

type ImportResult struct {
	Format  string          `json:"format"`
	Created int             `json:"created"`
	Failed  []ImportFailure `json:"failed"`
}
