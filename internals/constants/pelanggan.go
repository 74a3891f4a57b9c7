package constants

// Status layanan meter (jenis_meter)
const (
	JenisMeterBisaDilayani      = "bisa di layani"
	JenisMeterTidakBisaDilayani = "tidak bisa di layani"
	JenisMeterNormal            = "meter normal"
	JenisMeterRusak             = "meter rusak"
	JenisMeterHilang            = "meter hilang"
)

var JenisMeterValues = []string{
	JenisMeterBisaDilayani,
	JenisMeterTidakBisaDilayani,
	JenisMeterNormal,
	JenisMeterRusak,
	JenisMeterHilang,
}

const (
	StatusPelangganAktif               = "aktif"
	StatusPelangganTidakAktif          = "tidak aktif"
	StatusPelangganBongkar             = "bongkar"
	StatusPelangganBongkarAdm          = "bongkar adm"
	StatusPelangganDaftarPemasangan    = "daftar pemasangan"
	StatusPelangganPenonaktifan        = "penonaktifan"
	StatusPelangganPenyambunganKembali = "penyambungan kembali"
	StatusPelangganSiapSambung         = "siap sambung"
)

var StatusPelangganValues = []string{
	StatusPelangganAktif,
	StatusPelangganTidakAktif,
	StatusPelangganBongkar,
	StatusPelangganBongkarAdm,
	StatusPelangganDaftarPemasangan,
	StatusPelangganPenonaktifan,
	StatusPelangganPenyambunganKembali,
	StatusPelangganSiapSambung,
}

const (
	DefaultKondisiLingkungan = "bersih"
	DefaultKategori          = "jadwal harian"
)

func IsJenisMeter(v string) bool       { return contains(JenisMeterValues, v) }
func IsStatusPelanggan(v string) bool { return contains(StatusPelangganValues, v) }

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
