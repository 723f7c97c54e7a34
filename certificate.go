// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"reflect"

	"go.mozilla.org/pkcs7"
)

// The options for the WIN_CERTIFICATE Revision member include
// (but are not limited to) the following.
const (
	// WinCertRevision1_0 represents the WIN_CERT_REVISION_1_0 Version 1,
	// legacy version of the Win_Certificate structure.
	// It is supported only for purposes of verifying legacy Authenticode
	// signatures
	WinCertRevision1_0 = 0x0100

	// WinCertRevision2_0 represents the WIN_CERT_REVISION_2_0. Version 2
	// is the current version of the Win_Certificate structure.
	WinCertRevision2_0 = 0x0200
)

// The options for the WIN_CERTIFICATE CertificateType member include
// (but are not limited to) the items in the following table. Note that some
// values are not currently supported.
const (
	// Certificate contains an X.509 Certificate (Not Supported)
	WinCertTypeX509 = 0x0001

	// Certificate contains a PKCS#7 SignedData structure.
	WinCertTypePKCSSignedData = 0x0002

	// Reserved.
	WinCertTypeReserved1 = 0x0003

	// Terminal Server Protocol Stack Certificate signing (Not Supported).
	WinCertTypeTSStackSigned = 0x0004
)

// ErrSecurityDataDirInvalid is reported when the certificate header in the
// security directory is invalid.
var ErrSecurityDataDirInvalid = errors.New(
	`invalid certificate header in security directory`)

// Certificate directory. This is a structural, read-only dump of the
// Authenticode attribute certificate table: it never builds or walks a
// trust chain and never shells out to an external verifier. A caller that
// wants chain validation has to do it themselves with the parsed
// pkcs7.PKCS7/CertInfo values.
type Certificate struct {
	Header  WinCertificate `json:"header"`
	Content pkcs7.PKCS7    `json:"-"`
	Raw     []byte         `json:"-"`
	Info    CertInfo       `json:"info"`
}

// WinCertificate encapsulates a signature used in verifying executable files.
type WinCertificate struct {
	// Specifies the length, in bytes, of the signature.
	Length uint32 `json:"length"`

	// Specifies the certificate revision.
	Revision uint16 `json:"revision"`

	// Specifies the type of certificate.
	CertificateType uint16 `json:"certificate_type"`
}

// CertInfo wraps the important fields of the pkcs7 structure.
// This is what we keep in JSON marshalling.
type CertInfo struct {
	// The certificate authority (CA) that charges customers to issue
	// certificates for them.
	Issuer string `json:"issuer"`

	// The subject of the certificate is the entity its public key is
	// associated with (i.e. the "owner" of the certificate).
	Subject string `json:"subject"`

	// The serial number MUST be a positive integer assigned by the CA to
	// each certificate. For convenience, we convert the big int to string.
	SerialNumber string `json:"serial_number"`
}

// The security directory contains the authenticode signature, which is a
// digital signature format used to determine the origin and integrity of
// software binaries. Authenticode is based on the PKCS#7 standard and uses
// X.509 v3 certificates to bind an Authenticode-signed file to the identity
// of a software publisher. This package only unwraps the PKCS#7 envelope to
// surface issuer/subject/serial number; it never validates the signature or
// resolves a trust chain.
func (pe *File) parseSecurityDirectory(rva, size uint32) error {

	certInfo := CertInfo{}
	certHeader := WinCertificate{}
	certSize := uint32(binary.Size(certHeader))

	// The virtual address value from the Certificate Table entry in the
	// Optional Header Data Directory is a file offset to the first
	// attribute certificate entry, not an RVA.
	fileOffset := rva

	err := pe.structUnpack(&certHeader, fileOffset, certSize)
	if err != nil {
		return ErrOutsideBoundary
	}

	if certHeader.Length == 0 || fileOffset+certHeader.Length > pe.size {
		return ErrSecurityDataDirInvalid
	}

	certContent := pe.data[fileOffset+certSize : fileOffset+certHeader.Length]
	pkcsContent, err := pkcs7.Parse(certContent)
	if err != nil {
		pe.Certificates = Certificate{Header: certHeader, Raw: certContent}
		pe.HasCertificate = true
		return err
	}

	// The pkcs7.PKCS7 structure contains many fields we are not interested
	// in, so build a smaller struct similar to the Win32 _CERT_INFO
	// structure with only the fields we surface.
	serialNumber := pkcsContent.Signers[0].IssuerAndSerialNumber.SerialNumber
	for _, cert := range pkcsContent.Certificates {
		if !reflect.DeepEqual(cert.SerialNumber, serialNumber) {
			continue
		}

		certInfo.SerialNumber = hex.EncodeToString(cert.SerialNumber.Bytes())

		if len(cert.Issuer.Country) > 0 {
			certInfo.Issuer = cert.Issuer.Country[0]
		}
		if len(cert.Issuer.Province) > 0 {
			certInfo.Issuer += ", " + cert.Issuer.Province[0]
		}
		if len(cert.Issuer.Locality) > 0 {
			certInfo.Issuer += ", " + cert.Issuer.Locality[0]
		}
		certInfo.Issuer += ", " + cert.Issuer.CommonName

		if len(cert.Subject.Country) > 0 {
			certInfo.Subject = cert.Subject.Country[0]
		}
		if len(cert.Subject.Province) > 0 {
			certInfo.Subject += ", " + cert.Subject.Province[0]
		}
		if len(cert.Subject.Locality) > 0 {
			certInfo.Subject += ", " + cert.Subject.Locality[0]
		}
		if len(cert.Subject.Organization) > 0 {
			certInfo.Subject += ", " + cert.Subject.Organization[0]
		}
		certInfo.Subject += ", " + cert.Subject.CommonName

		break
	}

	pe.IsSigned = true
	pe.Certificates = Certificate{Header: certHeader, Content: *pkcsContent,
		Raw: certContent, Info: certInfo}
	pe.HasCertificate = true
	return nil
}
